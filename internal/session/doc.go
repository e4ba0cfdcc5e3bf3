// Package session tracks who is signed in.
//
// [Manager] computes its initial state once from durable storage:
//
//	no token            -> anonymous
//	malformed/expired   -> clear storage, anonymous
//	guest flag + user   -> guest (no network call)
//	otherwise           -> GET /auth/me; success authenticated, failure clear storage, anonymous
//
// Login, Register and Logout are the only mutating entry points. Hooks registered with
// [Manager.Subscribe] run synchronously after each change, always after storage is updated.
package session
