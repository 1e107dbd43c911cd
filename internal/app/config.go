package app

import (
	"os"

	"github.com/jinzhu/configor"
	"github.com/pkg/errors"
)

// Config is the engine configuration, loadable from config.yml with
// struct-tag defaults. CLI flags override whatever is loaded here.
type Config struct {
	Concurrency    int `yaml:"concurrency" default:"8"`
	TimeoutSeconds int `yaml:"timeout_seconds" default:"12"`
	BaseDelayMS    int `yaml:"base_delay_ms" default:"600"`
	JitterMS       int `yaml:"jitter_ms" default:"400"`
	MaxBodyKB      int `yaml:"max_body_kb" default:"512"`

	Catalog    string `yaml:"catalog" default:"websites.json"`
	Cache      string `yaml:"cache" default:"fp_cache.json"`
	ResultsDir string `yaml:"results_dir" default:"results"`

	SocksAddr string `yaml:"socks_addr" default:"127.0.0.1:9050"`
	UserAgent string `yaml:"user_agent"`
}

// LoadConfig reads path. required marks a path the user named explicitly
// on the command line; that file must exist. The implicit default file is
// optional and struct-tag defaults apply when it is absent.
func LoadConfig(path string, required bool) (Config, error) {
	var cfg Config
	loader := configor.New(&configor.Config{Silent: true})
	if _, err := os.Stat(path); err != nil {
		if required {
			return cfg, errors.Wrap(err, "config file")
		}
		return cfg, loader.Load(&cfg)
	}
	return cfg, loader.Load(&cfg, path)
}
