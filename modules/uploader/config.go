package uploader

import (
	"flag"

	"github.com/zachfi/zkit/pkg/util"
)

const (
	defaultDir            = "uploads"
	defaultMaxUploadBytes = 32 << 20 // 32 MiB
)

type Config struct {
	Dir            string `yaml:"dir,omitempty"`
	MaxUploadBytes int64  `yaml:"max-upload-bytes,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Dir, util.PrefixConfig(prefix, "dir"), defaultDir, "Directory uploaded files are stored in")
	f.Int64Var(&cfg.MaxUploadBytes, util.PrefixConfig(prefix, "max-upload-bytes"), defaultMaxUploadBytes, "Largest accepted request body in bytes")
}
