// Package playlist is the batch module that turns a station directory into an
// extended M3U playlist. Stations are fetched strictly one after another with
// a courtesy delay before every pointer file request.
package playlist
