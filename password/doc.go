// Package password implements password strength policy and credential
// hashing with Argon2id defaults.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Hashing the same plaintext twice yields different encoded values (the salt
// is random) but both verify. Verification compares derived keys with
// [crypto/subtle.ConstantTimeCompare].
//
// # Architecture boundaries
//
// This package owns strength validation, hashing, and verification only.
// When a policy applies and how rejections surface to callers is decided by
// the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive
//     hashes.
//   - Import any other authkit package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
