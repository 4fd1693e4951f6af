// Package store loads keymap documents and the per-application index
// from disk and resolves the mapping for a foreground application.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Alia5/wiituio/buttons"
	"github.com/Alia5/wiituio/keymap"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// ParseFormat normalizes a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// DefaultMapping returns the built-in keymap.
func DefaultMapping() keymap.Mapping {
	return keymap.Mapping{
		buttons.A:     {"TouchMaster"},
		buttons.B:     {"TouchSlave"},
		buttons.Home:  {"LWin"},
		buttons.Left:  {"Left"},
		buttons.Right: {"Right"},
		buttons.Up:    {"Up"},
		buttons.Down:  {"Down"},
		buttons.Plus:  {"LControl", "OEM_Plus"},
		buttons.Minus: {"LControl", "OEM_Minus"},
		buttons.One:   {"MouseToggle"},
	}
}

// ParseMapping decodes a keymap document of the form
// {ButtonName: "Key" | ["Mod", ..., "Key"]}.
func ParseMapping(data []byte, f Format) (keymap.Mapping, error) {
	raw := map[string]keymap.Entry{}
	switch f {
	case JSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse json keymap: %w", err)
		}
	case YAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml keymap: %w", err)
		}
	case TOML:
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return nil, fmt.Errorf("parse toml keymap: %w", err)
		}
		for k, v := range tree.ToMap() {
			e, err := keymap.EntryFrom(v)
			if err != nil {
				return nil, fmt.Errorf("parse toml keymap: %s: %w", k, err)
			}
			raw[k] = e
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", f)
	}

	m := make(keymap.Mapping, len(raw))
	var errs []error
	for name, e := range raw {
		b, err := buttons.Parse(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m[b] = e
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, m.Validate()
}

// MarshalMapping encodes m as a keymap document.
func MarshalMapping(m keymap.Mapping, f Format) ([]byte, error) {
	switch f {
	case JSON:
		doc := make(map[string]keymap.Entry, len(m))
		for b, e := range m {
			doc[b.String()] = e
		}
		return json.MarshalIndent(doc, "", "  ")
	case YAML:
		doc := make(map[string]keymap.Entry, len(m))
		for b, e := range m {
			doc[b.String()] = e
		}
		return yaml.Marshal(doc)
	case TOML:
		doc := make(map[string]any, len(m))
		for b, e := range m {
			if len(e) == 1 {
				doc[b.String()] = e[0]
			} else {
				doc[b.String()] = []string(e)
			}
		}
		return toml.Marshal(doc)
	}
	return nil, fmt.Errorf("unsupported format: %s", f)
}

// LoadMapping reads a keymap document, picking the format by extension.
func LoadMapping(path string) (keymap.Mapping, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseMapping(data, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
