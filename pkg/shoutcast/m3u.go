package shoutcast

import (
	"bufio"
	"fmt"
	"io"
)

const m3uHeader = "#EXTM3U\n"

// Entry is a single playable stream of a station.
type Entry struct {
	StationKey  string
	StationName string
	StreamURL   string
}

// WriteM3U writes entries as an extended M3U playlist. Every entry is
// written with an unbounded (-1) duration, in the order given.
func WriteM3U(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(m3uHeader); err != nil {
		return err
	}

	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "#EXTINF:-1,%s\n%s\n", e.StationName, e.StreamURL); err != nil {
			return err
		}
	}

	return bw.Flush()
}
