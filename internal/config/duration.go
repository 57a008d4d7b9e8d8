package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration read from plain seconds ("900", "0.5") or
// from Go duration syntax ("15m", "250ms")
type Duration time.Duration

// ParseDuration parses plain seconds or a Go duration
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, fmt.Errorf("could not parse duration %q: must be finite", s)
		}

		return Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(s)

	if err != nil {
		return 0, fmt.Errorf("could not parse duration %q: use seconds or a unit such as 15m", s)
	}

	return Duration(d), nil
}

// Std returns d as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalFlag implements flags.Unmarshaler for flags and environment variables
func (d *Duration) UnmarshalFlag(value string) error {
	parsed, err := ParseDuration(value)

	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// MarshalFlag implements flags.Marshaler so help output shows the value
func (d Duration) MarshalFlag() (string, error) {
	return d.Std().String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}

	return d.UnmarshalFlag(node.Value)
}
