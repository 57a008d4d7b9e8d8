package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Read decodes the YAML file at configPath over cfg. Keys absent from the
// file keep their current values, unknown keys are an error.
func Read(configPath string, cfg *Config) error {
	contents, err := os.ReadFile(configPath)

	if err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("could not parse config file: %w", err)
	}

	return nil
}
