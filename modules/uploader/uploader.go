package uploader

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/grafana/dskit/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const formField = "upload"

const form = `
<html>
<body>
<form method="POST" enctype="multipart/form-data">
<input type="file" name="upload" />
<input type="submit" />
</form>
</body>
</html>
`

// Uploader serves a single-file upload form and stores what it receives
// under the configured directory. A file with the same name is replaced.
type Uploader struct {
	services.Service
	cfg    *Config
	logger *slog.Logger
	root   *os.Root

	uploads     *prometheus.CounterVec
	uploadBytes prometheus.Counter
}

var module = "uploader"

// New creates the storage directory if needed and returns a new Uploader.
func New(cfg Config, logger slog.Logger, reg prometheus.Registerer) (*Uploader, error) {
	if cfg.Dir == "" {
		cfg.Dir = defaultDir
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(cfg.Dir)
	if err != nil {
		return nil, err
	}

	f := promauto.With(reg)
	u := &Uploader{
		cfg:    &cfg,
		logger: logger.With("module", module),
		root:   root,
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radiodir",
			Subsystem: module,
			Name:      "uploads_total",
			Help:      "Upload requests by result.",
		}, []string{"result"}),
		uploadBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "radiodir",
			Subsystem: module,
			Name:      "upload_bytes_total",
			Help:      "Bytes written to the upload directory.",
		}),
	}

	u.Service = services.NewIdleService(nil, u.stopping)

	return u, nil
}

func (u *Uploader) stopping(_ error) error {
	u.logger.Info("stopping")
	return u.root.Close()
}

// Form serves the upload form.
func (u *Uploader) Form(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, form)
}

// Receive stores the uploaded file and redirects back to the form. A request
// without an upload is redirected without storing anything.
func (u *Uploader) Receive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, u.cfg.MaxUploadBytes)

	file, header, err := r.FormFile(formField)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			u.logger.Warn("no upload in request", "field", formField)
			u.uploads.WithLabelValues("missing").Inc()
			u.redirect(w, r)
		case errors.As(err, &maxErr):
			u.uploads.WithLabelValues("too_large").Inc()
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		default:
			u.uploads.WithLabelValues("bad_request").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	n, err := u.store(header.Filename, file)
	if err != nil {
		u.logger.Error("error storing upload", "err", err, "filename", header.Filename)
		u.uploads.WithLabelValues("rejected").Inc()
		http.Error(w, "unable to store upload", http.StatusBadRequest)
		return
	}

	u.uploads.WithLabelValues("stored").Inc()
	u.uploadBytes.Add(float64(n))
	u.logger.Info("stored upload", "filename", header.Filename, "bytes", n)

	u.redirect(w, r)
}

// store writes src to name inside the upload directory. Names that resolve
// outside of it are refused by the root.
func (u *Uploader) store(name string, src io.Reader) (int64, error) {
	if name == "" {
		return 0, errors.New("empty filename")
	}

	f, err := u.root.Create(name)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	return n, err
}

func (u *Uploader) redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, r.URL.String(), http.StatusSeeOther)
}
