package playlist

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/grafana/dskit/modules"
	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zachfi/zkit/pkg/tracing"

	"github.com/zachfi/radiodir/pkg/directory"
	"github.com/zachfi/radiodir/pkg/shoutcast"
)

// Playlist builds one M3U playlist out of an aggregator's station directory.
// It runs once and then asks the process to stop.
type Playlist struct {
	services.Service
	cfg    *Config
	logger *slog.Logger
	tracer trace.Tracer

	client   *shoutcast.Client
	registry *prometheus.Registry
	metrics  *metrics

	// stdout receives the playlist when no output file is configured.
	stdout io.Writer
	sleep  func(ctx context.Context, d time.Duration) error
	runID  string
}

var module = "playlist"

// New creates and returns a new Playlist.
func New(cfg Config, logger slog.Logger) (*Playlist, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid playlist config")
	}

	reg := prometheus.NewRegistry()
	runID := uuid.NewString()

	p := &Playlist{
		cfg:      &cfg,
		logger:   logger.With("module", module, "run_id", runID),
		tracer:   otel.Tracer(module),
		client:   shoutcast.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg.UserAgent),
		registry: reg,
		metrics:  newMetrics(reg),
		stdout:   os.Stdout,
		sleep:    sleepContext,
		runID:    runID,
	}

	p.Service = services.NewBasicService(nil, p.running, nil)

	return p, nil
}

func (p *Playlist) running(ctx context.Context) error {
	if err := p.Run(ctx); err != nil {
		return err
	}

	return modules.ErrStopProcess
}

// Run fetches the directory, resolves every station's pointer file one at a
// time and writes the resulting playlist. Any error aborts the run.
func (p *Playlist) Run(ctx context.Context) (err error) {
	ctx, span := p.tracer.Start(ctx, "Playlist.Run")
	defer func() { _ = tracing.ErrHandler(span, err, "playlist run failed", nil) }()

	start := time.Now()

	stations, err := p.fetchDirectory(ctx)
	if err != nil {
		return err
	}
	p.logger.Info("fetched station directory", "url", p.cfg.URL, "stations", len(stations))

	var entries []shoutcast.Entry
	for _, s := range stations {
		e, err := p.resolve(ctx, s)
		if err != nil {
			return err
		}
		entries = append(entries, e...)
	}

	if err := p.write(ctx, entries); err != nil {
		return err
	}

	p.metrics.lastSuccess.SetToCurrentTime()
	p.logger.Info("wrote playlist", "entries", len(entries), "output", p.destination(), "took", time.Since(start))

	p.push()

	return nil
}

func (p *Playlist) fetchDirectory(ctx context.Context) (stations []directory.Station, err error) {
	ctx, span := p.tracer.Start(ctx, "Playlist.fetchDirectory", trace.WithAttributes(attribute.String("url", p.cfg.URL)))
	defer func() { _ = tracing.ErrHandler(span, err, "failed to fetch station directory", p.logger) }()

	timer := prometheus.NewTimer(p.metrics.fetchDuration.WithLabelValues("directory"))
	defer timer.ObserveDuration()

	return directory.Fetch(ctx, p.client, p.cfg.URL)
}

// resolve waits the configured delay and then turns one station's pointer
// file into playlist entries. The delay also applies before the first station.
func (p *Playlist) resolve(ctx context.Context, s directory.Station) (entries []shoutcast.Entry, err error) {
	ctx, span := p.tracer.Start(ctx, "Playlist.resolve", trace.WithAttributes(
		attribute.String("station", s.Key),
		attribute.String("url", s.PointerURL),
	))
	defer func() { _ = tracing.ErrHandler(span, err, "failed to resolve station", p.logger) }()

	if err := p.sleep(ctx, p.cfg.delay()); err != nil {
		return nil, err
	}

	timer := prometheus.NewTimer(p.metrics.fetchDuration.WithLabelValues("pointer"))
	body, err := p.client.GetText(ctx, s.PointerURL)
	timer.ObserveDuration()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch pointer file for station %q", s.Key)
	}

	urls, err := shoutcast.ParsePLS(body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse pointer file for station %q", s.Key)
	}

	for _, u := range urls {
		entries = append(entries, shoutcast.Entry{
			StationKey:  s.Key,
			StationName: s.Name,
			StreamURL:   u,
		})
	}

	p.metrics.stations.Inc()
	p.logger.Debug("resolved station", "station", s.Key, "streams", len(urls))

	return entries, nil
}

func (p *Playlist) write(ctx context.Context, entries []shoutcast.Entry) (err error) {
	_, span := p.tracer.Start(ctx, "Playlist.write", trace.WithAttributes(attribute.String("output", p.destination())))
	defer func() { _ = tracing.ErrHandler(span, err, "failed to write playlist", p.logger) }()

	if p.cfg.Output == "" {
		if err := shoutcast.WriteM3U(p.stdout, entries); err != nil {
			return errors.Wrap(err, "failed to write playlist")
		}
	} else {
		f, err := os.Create(p.cfg.Output)
		if err != nil {
			return errors.Wrap(err, "failed to create output file")
		}

		if err := shoutcast.WriteM3U(f, entries); err != nil {
			_ = f.Close()
			return errors.Wrapf(err, "failed to write playlist to %s", p.cfg.Output)
		}

		if err := f.Close(); err != nil {
			return errors.Wrapf(err, "failed to close %s", p.cfg.Output)
		}
	}

	p.metrics.streams.Add(float64(len(entries)))

	return nil
}

// push sends the run metrics to the configured pushgateway. A failed push
// does not fail the run; the playlist has already been written.
func (p *Playlist) push() {
	if p.cfg.PushGateway == "" {
		return
	}

	err := push.New(p.cfg.PushGateway, metricsNamespace+"_"+module).
		Gatherer(p.registry).
		Grouping("run_id", p.runID).
		Push()
	if err != nil {
		p.logger.Error("error pushing metrics", "err", err, "url", p.cfg.PushGateway)
	}
}

func (p *Playlist) destination() string {
	if p.cfg.Output == "" {
		return "stdout"
	}
	return p.cfg.Output
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
