// Package authkit implements an account authentication and recovery engine:
// credential hashing, password policy, and the issuance/consumption lifecycle
// of single-use, time-boxed email tokens (address verification and password
// reset).
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Engine], [Builder], [Config],
// the [UserStore] and [Notifier] collaborator contracts, and value types
// (User, TokenRecord, MetricsSnapshot). Session encoding, token material
// generation, and audit dispatch live under internal/ or sub-packages and are
// never re-exported.
//
// # What this package must NOT do
//
//   - Serve HTTP. Transports map their requests onto Engine operations and
//     render the returned sentinel errors themselves.
//   - Send email. The [Notifier] collaborator is invoked fire-and-forget;
//     delivery failure never rolls back token issuance.
//   - Persist users. The [UserStore] collaborator owns storage; the Engine
//     only requires read-after-write consistency per record and an optimistic
//     version check on Update.
//
// # Token lifecycle contract
//
// At most one outstanding unused token exists per purpose per user; issuing a
// new one overwrites the prior one. A token transitions unused to used exactly
// once, and consumption is committed together with the mutation it authorizes
// (email confirmation or credential replacement) in a single versioned store
// update. Concurrent presentations of the same token resolve to exactly one
// acceptance; the loser observes [ErrLinkAlreadyUsed].
package authkit
