package app

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/grafana/dskit/flagext"
	"github.com/grafana/dskit/server"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/zachfi/zkit/pkg/tracing"

	"github.com/zachfi/radiodir/modules/playlist"
	"github.com/zachfi/radiodir/modules/uploader"
)

type Config struct {
	Target   string          `yaml:"target"`
	Tracing  tracing.Config  `yaml:"tracing,omitempty"`
	Server   server.Config   `yaml:"server,omitempty"`
	Playlist playlist.Config `yaml:"playlist,omitempty"`
	Uploader uploader.Config `yaml:"uploader,omitempty"`
}

// LoadConfig overlays the YAML file at file onto config. Fields the file
// does not mention keep their current values; unknown fields are an error.
func LoadConfig(file string, config *Config) error {
	filename, _ := filepath.Abs(file)

	if err := loadYamlFile(filename, config); err != nil {
		return errors.Wrap(err, "failed to load yaml file")
	}

	return nil
}

// loadYamlFile unmarshals a YAML file into the received interface{} or returns an error.
func loadYamlFile(filename string, d interface{}) error {
	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.UnmarshalStrict(yamlFile, d)
}

func (c *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&c.Target, "target", Playlist, "Module to run: playlist or uploader.")

	flagext.DefaultValues(&c.Server)
	f.IntVar(&c.Server.HTTPListenPort, "server.http-listen-port", 5000, "HTTP server listen port.")
	f.IntVar(&c.Server.GRPCListenPort, "server.grpc-listen-port", 9095, "gRPC server listen port.")

	c.Tracing.RegisterFlagsAndApplyDefaults("tracing", f)
	c.Playlist.RegisterFlagsAndApplyDefaults("playlist", f)
	c.Uploader.RegisterFlagsAndApplyDefaults("uploader", f)
}
