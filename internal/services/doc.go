// Package services implements the client for the movie recommendation backend.
//
// # Calls
//
// [APIService.Call] is the only place that touches the network. It normalizes the path, merges
// caller headers over the JSON defaults, stamps an X-Request-ID and enforces the client timeout.
// Every failure is a [*Failure] whose [Kind] is one of:
//   - [KindNetwork]: no response arrived
//   - [KindTimeout]: the client timeout elapsed
//   - [KindHTTP]: non-2xx status; Message is taken from the error body when it has one
//   - [KindParse]: a 2xx body was not valid JSON or not the expected shape
//
// A Failure matches [shared.ErrAPIRequest] and its kind sentinel with [errors.Is].
//
// # Convenience operations
//
// Listing calls (popular, similar, search, genre, watchlist, history, personalized
// recommendations) log failures and return an empty value of the normal shape. Mutations and
// auth calls return failures to the caller.
//
// The bearer token is read from [storage.Store] on every call that needs it; [APIService.Login]
// writes token and user in a single [storage.Store.SetMany].
package services
