// Package jwt issues and parses the HS256 session access tokens handed out
// by sign-up and log-in.
//
// # Architecture boundaries
//
// This package owns token signing and claim validation only. Whether a
// session is still live is the session store's call; Manager never performs
// I/O.
//
// # What this package must NOT do
//
//   - Accept tokens signed with any method other than the configured one
//     (algorithm confusion).
//   - Import any other authkit package.
package jwt
