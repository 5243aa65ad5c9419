package shoutcast

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteM3U(t *testing.T) {
	entries := []Entry{
		{StationKey: "x", StationName: "X Station", StreamURL: "http://stream/x1"},
		{StationKey: "x", StationName: "X Station", StreamURL: "http://stream/x1"},
		{StationKey: "a", StationName: "A Station", StreamURL: "http://stream/a1"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteM3U(&buf, entries))

	expected := "#EXTM3U\n" +
		"#EXTINF:-1,X Station\nhttp://stream/x1\n" +
		"#EXTINF:-1,X Station\nhttp://stream/x1\n" +
		"#EXTINF:-1,A Station\nhttp://stream/a1\n"
	require.Equal(t, expected, buf.String())
}

func TestWriteM3UEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteM3U(&buf, nil))
	require.Equal(t, "#EXTM3U\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteM3UError(t *testing.T) {
	err := WriteM3U(failingWriter{}, []Entry{{StationName: "X", StreamURL: "http://x"}})
	require.EqualError(t, err, "disk full")
}
