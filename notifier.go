package authkit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Template names the outbound email a notification should render.
type Template string

const (
	// TemplateEmailVerification carries a fresh email-check token.
	TemplateEmailVerification Template = "emailVerification"
	// TemplatePasswordReset carries a fresh password-change token.
	TemplatePasswordReset Template = "passwordReset"
)

// Notification is the payload handed to the [Notifier]. Token is the raw
// value the recipient must present; the notifier is the only component that
// ever sees it besides the issuing flow.
type Notification struct {
	Template  Template
	To        string
	FirstName string
	Token     Token
}

// Notifier delivers notifications. Implementations are invoked from the
// engine's dispatch goroutine, never from the request path, and their errors
// are dropped: a token stays valid for its full TTL whether or not the email
// made it out.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// NoOpNotifier discards notifications.
type NoOpNotifier struct{}

func (NoOpNotifier) Send(context.Context, Notification) error { return nil }

// ChannelNotifier exposes notifications on a buffered channel, for tests and
// for callers that run their own delivery loop.
type ChannelNotifier struct {
	notifications chan Notification
}

// NewChannelNotifier creates a ChannelNotifier with the given buffer
// capacity.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelNotifier{
		notifications: make(chan Notification, buffer),
	}
}

func (n *ChannelNotifier) Send(ctx context.Context, notification Notification) error {
	select {
	case n.notifications <- notification:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notifications exposes the receiving side of the notifier.
func (n *ChannelNotifier) Notifications() <-chan Notification {
	return n.notifications
}

// notifyDispatcher decouples delivery from the request path: Enqueue never
// blocks longer than a channel send, and the worker drains the buffer on
// Close so accepted notifications are not lost on shutdown.
type notifyDispatcher struct {
	cfg       NotifyConfig
	notifier  Notifier
	ch        chan Notification
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newNotifyDispatcher(cfg NotifyConfig, notifier Notifier) *notifyDispatcher {
	if notifier == nil {
		notifier = NoOpNotifier{}
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}

	d := &notifyDispatcher{
		cfg:      cfg,
		notifier: notifier,
		ch:       make(chan Notification, cfg.BufferSize),
		done:     make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *notifyDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case notification := <-d.ch:
			_ = d.notifier.Send(context.Background(), notification)
		case <-d.done:
			for {
				select {
				case notification := <-d.ch:
					_ = d.notifier.Send(context.Background(), notification)
				default:
					return
				}
			}
		}
	}
}

func (d *notifyDispatcher) Enqueue(ctx context.Context, notification Notification) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- notification:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- notification:
	case <-ctx.Done():
	case <-d.done:
	}
}

func (d *notifyDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *notifyDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
