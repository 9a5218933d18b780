// Package models defines the domain entities shared by the cratebot playlist bot.
//
// The package contains value types only:
//   - [Track] : Song metadata as returned by the Spotify Web API
//   - [AppendOutcome] : Result of an idempotent playlist append
//   - [PlaylistStats] : Aggregate statistics computed over a track listing
//   - [DiscoveryPlaylist] : The output of one discovery generation run
//
// Everything here is immutable once constructed and safe to copy; no type
// owns a network or database handle.
package models
