// Package survey serves the questionnaire the field app renders on each
// doorstep. The document is opaque to the server: it is checked to be a JSON
// object once at startup and served byte for byte afterwards.
package survey

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed default.json
var defaultConfig []byte

// Config is a loaded survey document.
type Config struct {
	raw json.RawMessage
}

// Load reads the document at path, or the embedded default when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(defaultConfig)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read survey config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates data as a JSON object and compacts it.
func Parse(data []byte) (*Config, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("survey config must be a JSON object: %w", err)
	}
	if probe == nil {
		return nil, fmt.Errorf("survey config must be a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, fmt.Errorf("compact survey config: %w", err)
	}
	return &Config{raw: buf.Bytes()}, nil
}

// JSON returns the document.
func (c *Config) JSON() json.RawMessage {
	return c.raw
}
