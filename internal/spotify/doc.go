// Package spotify implements the resilient Spotify Web API client the rest
// of the bot is built on.
//
// Responsibilities are split across three layers:
//
//  1. [TokenManager] owns the OAuth refresh-token exchange and the current
//     access token. Refreshes are single-flight: concurrent callers block on
//     one in-flight exchange instead of issuing duplicates.
//  2. [Client] wraps every HTTP call with token injection, response
//     classification into [*APIError], and a bounded retry loop with
//     exponential backoff and jitter ([Policy]). Rate-limit responses honor
//     the server's Retry-After header instead of the computed delay. One
//     logical operation holds the client at a time; waiters time out with
//     [shared.ErrBusy] rather than queueing forever.
//  3. Endpoint helpers (Track, SearchTracks, PlaylistTrackPage, ...) decode
//     API payloads into [models.Track] values.
//
// Response types are based on https://developer.spotify.com/documentation/web-api/reference/
package spotify
