package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the on-disk encoding of a scenario.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the encoding from a file extension: .yaml and .yml are YAML, anything
// else is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode writes s to w.
//
// Parameters:
//   - w: the destination
//   - s: the scenario to encode
//   - format: JSON (indented) or YAML
//
// Returns:
//   - error: error if encoding fails
func Encode(w io.Writer, s *Scenario, format Format) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode yaml scenario: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode json scenario: %w", err)
	}
	return nil
}

// Decode reads a scenario from r.
//
// Parameters:
//   - r: the source
//   - format: JSON or YAML
//
// Returns:
//   - *Scenario: the decoded scenario
//   - error: error if decoding fails or the scenario has no scenes
func Decode(r io.Reader, format Format) (*Scenario, error) {
	var s Scenario
	if format == FormatYAML {
		if err := yaml.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("decode yaml scenario: %w", err)
		}
	} else {
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("decode json scenario: %w", err)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes s to path, choosing the format from the extension.
func Save(path string, s *Scenario) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scenario file: %w", err)
	}
	if err := Encode(f, s, FormatFor(path)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close scenario file: %w", err)
	}
	return nil
}

// Load reads a scenario from path, choosing the format from the extension.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario file: %w", err)
	}
	defer f.Close()
	return Decode(f, FormatFor(path))
}
