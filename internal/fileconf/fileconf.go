// Package fileconf decodes registry files whose format follows the file
// extension: .yaml/.yml, .json or .toml. Files without a known extension are
// tried against each format in turn.
package fileconf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned when no decoder accepts the file.
var ErrUnknownFormat = errors.New("file format not recognized (expected YAML, JSON or TOML)")

type decoder struct {
	name string
	exts []string
	fn   func([]byte, any) error
}

var decoders = []decoder{
	{name: "yaml", exts: []string{".yaml", ".yml"}, fn: yaml.Unmarshal},
	{name: "json", exts: []string{".json"}, fn: json.Unmarshal},
	{name: "toml", exts: []string{".toml"}, fn: toml.Unmarshal},
}

// Load reads path and decodes it into v.
func Load(path string, v any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(raw, filepath.Ext(path), v)
}

// Decode unmarshals data into v with the decoder matching ext. An empty or
// unknown ext tries every decoder and keeps the first that succeeds.
func Decode(data []byte, ext string, v any) error {
	ext = strings.ToLower(strings.TrimSpace(ext))
	for _, d := range decoders {
		if d.matches(ext) {
			if err := d.fn(data, v); err != nil {
				return fmt.Errorf("decode %s: %w", d.name, err)
			}
			return nil
		}
	}
	for _, d := range decoders {
		if err := d.fn(data, v); err == nil {
			return nil
		}
	}
	return ErrUnknownFormat
}

func (d decoder) matches(ext string) bool {
	for _, e := range d.exts {
		if e == ext {
			return true
		}
	}
	return false
}
