package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/grafana/dskit/modules"
	"github.com/grafana/dskit/server"
	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zachfi/radiodir/modules/playlist"
	"github.com/zachfi/radiodir/modules/uploader"
)

const (
	Server string = "server"

	Playlist string = "playlist"
	Uploader string = "uploader"
)

func (a *App) setupModuleManager() error {
	mm := modules.NewManager(a.kitLogger)
	mm.RegisterModule(Server, a.initServer, modules.UserInvisibleModule)

	mm.RegisterModule(Playlist, a.initPlaylist)
	mm.RegisterModule(Uploader, a.initUploader)

	deps := map[string][]string{
		// Server:   nil,
		// Playlist: nil,
		Uploader: {Server},
	}

	for mod, targets := range deps {
		if err := mm.AddDependency(mod, targets...); err != nil {
			return err
		}
	}

	a.ModuleManager = mm

	return nil
}

func (a *App) initPlaylist() (services.Service, error) {
	p, err := playlist.New(a.cfg.Playlist, a.logger)
	if err != nil {
		return nil, errors.Wrap(err, "unable to init "+Playlist)
	}

	return p, nil
}

func (a *App) initUploader() (services.Service, error) {
	u, err := uploader.New(a.cfg.Uploader, a.logger, prometheus.DefaultRegisterer)
	if err != nil {
		return nil, errors.Wrap(err, "unable to init "+Uploader)
	}

	a.Server.HTTP.Path("/").Methods(http.MethodGet).HandlerFunc(u.Form)
	a.Server.HTTP.Path("/").Methods(http.MethodPost).HandlerFunc(u.Receive)

	return u, nil
}

func (a *App) initServer() (services.Service, error) {
	a.cfg.Server.MetricsNamespace = metricsNamespace
	a.cfg.Server.ExcludeRequestInLog = true
	a.cfg.Server.RegisterInstrumentation = true
	a.cfg.Server.Log = a.kitLogger
	// App.Run owns SIGINT and SIGTERM; the server stops through the manager.
	handler := newServerSignals()
	a.cfg.Server.SignalHandler = handler

	server, err := server.New(a.cfg.Server)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create server")
	}

	servicesToWaitFor := func() []services.Service {
		svs := []services.Service(nil)
		for m, s := range a.serviceMap {
			// Server should not wait for itself.
			if m != Server {
				svs = append(svs, s)
			}
		}

		return svs
	}

	a.Server = server

	serverDone := make(chan error, 1)

	runFn := func(ctx context.Context) error {
		go func() {
			defer close(serverDone)
			serverDone <- server.Run()
		}()

		select {
		case <-ctx.Done():
			return nil
		case err := <-serverDone:
			if err != nil {
				return err
			}

			a.logger.Info("server stopped before shutdown")
			return nil
		}
	}

	stoppingFn := func(_ error) error {
		// wait until all modules are done, and then shutdown server.
		for _, s := range servicesToWaitFor() {
			_ = s.AwaitTerminated(context.Background())
		}

		// shutdown HTTP and gRPC servers (this also unblocks Run)
		server.Shutdown()
		handler.Stop()

		// if not closed yet, wait until server stops.
		<-serverDone
		a.logger.Info("server stopped")
		return nil
	}

	return services.NewBasicService(nil, runFn, stoppingFn), nil
}

// serverSignals stands in for the dskit server's own signal handler. Loop
// blocks until Stop.
type serverSignals struct {
	quit chan struct{}
	once sync.Once
}

func newServerSignals() *serverSignals {
	return &serverSignals{quit: make(chan struct{})}
}

func (s *serverSignals) Loop() { <-s.quit }

func (s *serverSignals) Stop() {
	s.once.Do(func() { close(s.quit) })
}

// failure returns the first failure among the stopped services, ignoring
// modules that asked the process to stop.
func failure(sm *services.Manager) error {
	for _, s := range sm.ServicesByState()[services.Failed] {
		if err := s.FailureCase(); err != nil && !errors.Is(err, modules.ErrStopProcess) {
			return err
		}
	}

	return nil
}
