package playlist

import (
	"flag"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/zachfi/zkit/pkg/util"
)

const (
	DefaultURL   = "http://listen.di.fm/public2"
	DefaultDelay = 0.5 // seconds

	defaultUserAgent = "radiodir"

	// maxDelay is the largest delay, in seconds, that fits a time.Duration.
	maxDelay = float64(math.MaxInt64 / int64(time.Second))
)

type Config struct {
	URL         string        `yaml:"url,omitempty"`
	Output      string        `yaml:"output,omitempty"` // empty writes to stdout
	Delay       float64       `yaml:"delay,omitempty"`  // seconds to wait before each pointer fetch
	UserAgent   string        `yaml:"user-agent,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"` // zero disables the client timeout
	PushGateway string        `yaml:"push-gateway,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.URL, util.PrefixConfig(prefix, "url"), DefaultURL, "Station directory URL")
	f.StringVar(&cfg.Output, util.PrefixConfig(prefix, "output"), "", "Output file, standard output when empty")
	f.Float64Var(&cfg.Delay, util.PrefixConfig(prefix, "delay"), DefaultDelay, "Seconds to wait before fetching each station playlist")
	f.StringVar(&cfg.UserAgent, util.PrefixConfig(prefix, "user-agent"), defaultUserAgent, "User-Agent sent to the aggregator")
	f.DurationVar(&cfg.Timeout, util.PrefixConfig(prefix, "timeout"), 0, "HTTP client timeout, 0 for none")
	f.StringVar(&cfg.PushGateway, util.PrefixConfig(prefix, "push-gateway"), "", "Prometheus pushgateway URL to push run metrics to")
}

func (cfg *Config) Validate() error {
	if cfg.URL == "" {
		return errors.New("station directory URL is required")
	}
	if math.IsNaN(cfg.Delay) || math.IsInf(cfg.Delay, 0) {
		return errors.Errorf("delay must be a finite number, got %v", cfg.Delay)
	}
	if cfg.Delay < 0 {
		return errors.Errorf("delay must not be negative, got %v", cfg.Delay)
	}
	if cfg.Delay > maxDelay {
		return errors.Errorf("delay must not exceed %v seconds, got %v", maxDelay, cfg.Delay)
	}
	return nil
}

// delay converts the configured seconds to a duration.
func (cfg *Config) delay() time.Duration {
	return time.Duration(cfg.Delay * float64(time.Second))
}
