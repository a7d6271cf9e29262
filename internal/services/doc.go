// Package services defines the remote operations a sync needs and implements them for bangumi.
//
// # Interfaces
//
// The sync engine depends only on two small interfaces so it can be driven by fakes in tests:
//   - [WishListSource] : one page of wish-list markup per call
//   - [CollectionUpdater] : one collection status change per call
//
// # Bangumi Implementation
//
// [BangumiService] implements both. Wish-list pages are scraped from the main site
// (bgm.tv) because the list ordered by air date is not exposed by the API. Collection
// changes are sent to the v0 API (api.bgm.tv) with the user's access token attached by an
// [oauth2.Transport] over a static token source.
//
// # Raw Requests
//
// [APIService] wraps a base URL, User-Agent and [http.Client]. Response bodies are transcoded
// to UTF-8 using the charset declared by the server.
//
// # Error Handling
//
// Failures wrap sentinels from the shared package:
//   - [shared.ErrAPIRequest] : transport failure or unexpected status
//   - [shared.ErrInvalidArgument] : page numbers below 1
//   - [shared.ErrMissingCredentials] : no username configured
//
// Nothing here retries.
package services
