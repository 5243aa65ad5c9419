// Package shoutcast provides the shoutcast-side plumbing for building radio playlists:
//   - Pointer files: .pls documents are parsed into their list of stream URLs
//   - Playlists: stream entries are written as extended M3U
//   - Fetching: a small HTTP client for the UTF-8 text documents an aggregator publishes
package shoutcast
