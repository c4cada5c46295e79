package config

// credentials.go resolves an opaque credentials reference into the
// username/password pair used for the remote store.

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/perfgo/trendwiki/codebeamer"
)

type credentialsFile struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ResolveCredentials resolves reference, which is one of
//
//	env:NAME         reads $NAME_USERNAME and $NAME_PASSWORD
//	file:/some/path  reads a YAML file with username and password keys
func ResolveCredentials(reference string) (codebeamer.Credentials, error) {
	scheme, value, found := strings.Cut(reference, ":")
	if !found || value == "" {
		return codebeamer.Credentials{}, fmt.Errorf("invalid credentials reference %q: expected env:NAME or file:PATH", reference)
	}

	var creds codebeamer.Credentials
	switch scheme {
	case "env":
		prefix := strings.ToUpper(value)
		creds = codebeamer.Credentials{
			Username: os.Getenv(prefix + "_USERNAME"),
			Password: os.Getenv(prefix + "_PASSWORD"),
		}
	case "file":
		data, err := os.ReadFile(value)
		if err != nil {
			return codebeamer.Credentials{}, fmt.Errorf("failed to read credentials file: %w", err)
		}
		var f credentialsFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return codebeamer.Credentials{}, fmt.Errorf("failed to parse credentials file %s: %w", value, err)
		}
		creds = codebeamer.Credentials{Username: f.Username, Password: f.Password}
	default:
		return codebeamer.Credentials{}, fmt.Errorf("unsupported credentials reference scheme %q", scheme)
	}

	if creds.Username == "" {
		return codebeamer.Credentials{}, fmt.Errorf("credentials reference %q resolved to an empty username", reference)
	}
	return creds, nil
}
