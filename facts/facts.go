package facts

// This file contains loading and validation of the build facts file handed
// over by the build system.

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/perfgo/trendwiki/model"
)

//go:embed schema.json
var schema []byte

var schemaLoader = gojsonschema.NewBytesLoader(schema)

// Load reads the facts file at path, validates it and decodes it.
func Load(logger zerolog.Logger, path string) (*model.Build, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read facts file: %w", err)
	}

	build, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid facts file %s: %w", path, err)
	}

	logger.Debug().
		Str("path", path).
		Str("job", build.Job).
		Int("number", build.Number).
		Bool("performance", build.HasPerformance()).
		Msg("Loaded build facts")

	return build, nil
}

// Parse validates data against the facts schema and decodes it.
func Parse(data []byte) (*model.Build, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var build model.Build
	if err := json.Unmarshal(data, &build); err != nil {
		return nil, fmt.Errorf("failed to decode facts: %w", err)
	}

	return &build, nil
}

// Validate checks data against the facts schema.
func Validate(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("facts are not valid JSON")
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var errors []string
		for _, err := range result.Errors() {
			errors = append(errors, err.String())
		}
		return fmt.Errorf("schema validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}
