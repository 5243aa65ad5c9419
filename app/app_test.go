package app

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/grafana/dskit/flagext"
	"github.com/stretchr/testify/require"

	"github.com/zachfi/radiodir/modules/playlist"
	"github.com/zachfi/radiodir/modules/uploader"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// newAggregator serves stations at /public2, with $URL replaced by the
// server URL, and a single pointer file at /x.pls.
func newAggregator(t *testing.T, stations string) *httptest.Server {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/public2":
			_, _ = w.Write([]byte(strings.ReplaceAll(stations, "$URL", srv.URL)))
		case "/x.pls":
			_, _ = w.Write([]byte("File1=http://stream/x1\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunPlaylistTarget(t *testing.T) {
	srv := newAggregator(t, `[{"key":"x","name":"X Station","playlist":"$URL/x.pls"}]`)
	output := filepath.Join(t.TempDir(), "di.m3u")

	a, err := New(Config{
		Target:   Playlist,
		Playlist: playlist.Config{URL: srv.URL + "/public2", Output: output},
	}, *testLogger())
	require.NoError(t, err)
	require.NoError(t, a.Run())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, "#EXTM3U\n#EXTINF:-1,X Station\nhttp://stream/x1\n", string(data))
}

func TestRunPlaylistTargetFailure(t *testing.T) {
	srv := newAggregator(t, `[{"key":"x","name":"X Station"}]`)
	output := filepath.Join(t.TempDir(), "di.m3u")

	a, err := New(Config{
		Target:   Playlist,
		Playlist: playlist.Config{URL: srv.URL + "/public2", Output: output},
	}, *testLogger())
	require.NoError(t, err)

	err = a.Run()
	require.ErrorContains(t, err, "missing a required field")

	_, statErr := os.Stat(output)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunUnknownTarget(t *testing.T) {
	a, err := New(Config{Target: "ripper"}, *testLogger())
	require.NoError(t, err)
	require.Error(t, a.Run())
}

func freePort(t *testing.T) int {
	l, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// The uploader registers its metrics on the default registry, so this is the
// only test in the package that may run the uploader target.
func TestRunUploaderTarget(t *testing.T) {
	dir := t.TempDir()
	port := freePort(t)

	cfg := Config{
		Target:   Uploader,
		Uploader: uploader.Config{Dir: dir, MaxUploadBytes: 1 << 20},
	}
	flagext.DefaultValues(&cfg.Server)
	cfg.Server.HTTPListenAddress = "localhost"
	cfg.Server.HTTPListenPort = port
	cfg.Server.GRPCListenAddress = "localhost"
	cfg.Server.GRPCListenPort = 0

	a, err := New(cfg, *testLogger())
	require.NoError(t, err)

	// keeps SIGTERM from killing the test binary whatever the timing
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM)
	defer signal.Stop(sigs)

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	base := fmt.Sprintf("http://localhost:%d", port)
	client := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 50*time.Millisecond)

	resp, err := client.Get(base + "/")
	require.NoError(t, err)
	form, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Contains(t, string(form), `name="upload"`)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("upload", "a.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello radio"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err = client.Post(base+"/", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello radio", string(data))

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("Run did not return after SIGTERM")
	}
}
