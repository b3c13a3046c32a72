// Package session stores the server-side sessions backing issued access
// tokens in Redis.
//
// # Key layout
//
//	<prefix>:s:<sessionID>  — encoded session blob, TTL-bound
//	<prefix>:u:<userID>     — set of the user's live session IDs
//
// The per-user index is what makes "invalidate every session after a
// password reset" a handful of deletes instead of a keyspace scan.
//
// # What this package must NOT do
//
//   - Decide auth outcomes. A missing session is reported as
//     [ErrSessionNotFound]; the Engine decides what that means.
//   - Import any other authkit package.
package session
