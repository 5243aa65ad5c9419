package shoutcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientGetText(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/ok.pls":
			_, _ = w.Write([]byte("File1=http://a\n"))
		case "/latin1":
			_, _ = w.Write([]byte{'F', 'i', 'l', 'e', '1', '=', 0xe9, '\n'})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "radiodir-test")

	body, err := c.GetText(context.Background(), srv.URL+"/ok.pls")
	require.NoError(t, err)
	require.Equal(t, "File1=http://a\n", body)
	require.Equal(t, "radiodir-test", userAgent)

	_, err = c.GetText(context.Background(), srv.URL+"/latin1")
	require.ErrorIs(t, err, ErrInvalidUTF8)

	_, err = c.GetText(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestClientGetTextTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(nil, "").GetText(context.Background(), url)
	require.Error(t, err)
}
