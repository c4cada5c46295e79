package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
)

const (
	AppName = "trendwiki"

	KeyDocumentURI  = "document_uri"
	KeyCredentials  = "credentials"
	KeyRetention    = "retention"
	KeyStrictWrites = "strict_writes"
	KeyTimeout      = "timeout"

	DefaultTimeout = 10 * time.Second
)

// Config holds the settings of one publish run.
// The values are read by viper from flags, environment variables or a
// config file.
type Config struct {
	// Wiki page URI in the form <base>/wiki/<id>
	DocumentURI string `mapstructure:"document_uri"`
	// Opaque credentials reference, see ResolveCredentials
	Credentials string `mapstructure:"credentials"`
	// Number of entries kept in the report block; nil selects the default,
	// values <= 0 disable truncation
	Retention *int `mapstructure:"retention"`
	// Fail the run when the wiki page update is rejected
	StrictWrites bool `mapstructure:"strict_writes"`
	// Timeout applied to connect, response header and request
	Timeout time.Duration `mapstructure:"timeout"`
}

// New returns a viper instance with defaults, environment binding and the
// config file search path set up. configPath may be empty.
func New(configPath string) *viper.Viper {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
		v.AddConfigPath(filepath.Join("/etc", AppName))
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
	}

	v.SetDefault(KeyStrictWrites, false)
	v.SetDefault(KeyTimeout, DefaultTimeout)

	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about
	for _, key := range []string{KeyDocumentURI, KeyCredentials, KeyRetention} {
		_ = v.BindEnv(key)
	}

	return v
}

// Load reads the config file (if any) into v and decodes the result.
// A missing config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// an explicit null in the config file must keep the default
	if !v.IsSet(KeyRetention) || v.Get(KeyRetention) == nil {
		cfg.Retention = nil
	}

	return &cfg, nil
}

// Validate reports every missing or malformed setting at once. The document
// URI is not checked: a missing or foreign URI skips the run instead, see
// ParseDocumentURI.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Credentials == "" {
		result = multierror.Append(result, fmt.Errorf("%s is required", KeyCredentials))
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("%s must be positive, got %s", KeyTimeout, c.Timeout))
	}

	return result.ErrorOrNil()
}

// Target identifies the wiki page a run publishes to.
type Target struct {
	BaseURL string
	WikiID  string
}

var documentURIPattern = regexp.MustCompile(`(https?://.+)/wiki/(\d+)`)

// ParseDocumentURI splits a wiki page URI into instance URL and page id.
// ok is false when uri does not match <base>/wiki/<id>.
func ParseDocumentURI(uri string) (target Target, ok bool) {
	m := documentURIPattern.FindStringSubmatch(uri)
	if m == nil {
		return Target{}, false
	}
	return Target{BaseURL: m[1], WikiID: m[2]}, true
}
