package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Alia5/wiituio/keymap"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// IndexName is the base name of the application index in a keymap directory.
const IndexName = "Applications"

// Application binds an application name fragment to a keymap document.
type Application struct {
	Name   string `json:"Name" yaml:"Name" toml:"Name"`
	Keymap string `json:"Keymap" yaml:"Keymap" toml:"Keymap"`
}

// Index lists the per-application keymaps and the default keymap file.
type Index struct {
	Applications []Application `json:"Applications" yaml:"Applications" toml:"Applications"`
	Default      string        `json:"Default,omitempty" yaml:"Default,omitempty" toml:"Default,omitempty"`
}

// ParseIndex decodes an application index document.
func ParseIndex(data []byte, f Format) (*Index, error) {
	var ix Index
	var err error
	switch f {
	case JSON:
		err = json.Unmarshal(data, &ix)
	case YAML:
		err = yaml.Unmarshal(data, &ix)
	case TOML:
		err = toml.Unmarshal(data, &ix)
	default:
		return nil, fmt.Errorf("unsupported format: %s", f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s application index: %w", f, err)
	}
	for i, a := range ix.Applications {
		if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Keymap) == "" {
			return nil, fmt.Errorf("application %d: name and keymap are required", i)
		}
	}
	return &ix, nil
}

func squash(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}

// Match returns the first application whose name occurs in identity.
// Comparison ignores case and spaces.
func (ix *Index) Match(identity string) (Application, bool) {
	id := squash(identity)
	if id == "" {
		return Application{}, false
	}
	for _, a := range ix.Applications {
		if strings.Contains(id, squash(a.Name)) {
			return a, true
		}
	}
	return Application{}, false
}

// Store resolves mappings for application identities. Documents are
// read from dir and cached after the first successful load.
type Store struct {
	dir    string
	index  *Index
	def    keymap.Mapping
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]keymap.Mapping
}

// Open reads the application index and default keymap from dir. A
// missing directory or index yields a store that always returns the
// built-in default mapping.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		dir:    dir,
		index:  &Index{},
		def:    DefaultMapping(),
		logger: logger,
		cache:  map[string]keymap.Mapping{},
	}
	if dir == "" {
		return s, nil
	}

	ix, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	if ix != nil {
		s.index = ix
	}
	if s.index.Default != "" {
		m, err := LoadMapping(s.path(s.index.Default))
		if err != nil {
			return nil, fmt.Errorf("default keymap: %w", err)
		}
		s.def = s.def.Merge(m)
	}
	return s, nil
}

func (s *Store) loadIndex() (*Index, error) {
	for _, f := range []Format{JSON, YAML, TOML} {
		p := filepath.Join(s.dir, IndexName+"."+string(f))
		data, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		ix, err := ParseIndex(data, f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		s.logger.Debug("Loaded application index", "path", p, "applications", len(ix.Applications))
		return ix, nil
	}
	return nil, nil
}

func (s *Store) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// Default returns a copy of the default mapping.
func (s *Store) Default() keymap.Mapping { return s.def.Clone() }

// Index returns the loaded application index.
func (s *Store) Index() *Index { return s.index }

// Resolve returns the mapping for identity: the matched application's
// keymap merged over the default, or the default itself. app is the
// matched application name, empty for the default. A keymap that fails
// to load is logged and the default is used.
func (s *Store) Resolve(identity string) (m keymap.Mapping, app string) {
	a, ok := s.index.Match(identity)
	if !ok {
		return s.Default(), ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.cache[a.Keymap]; ok {
		return m.Clone(), a.Name
	}
	override, err := LoadMapping(s.path(a.Keymap))
	if err != nil {
		s.logger.Warn("Failed to load application keymap", "app", a.Name, "error", err)
		return s.Default(), ""
	}
	merged := s.def.Merge(override)
	s.cache[a.Keymap] = merged
	return merged.Clone(), a.Name
}
