package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Alia5/wiituio/internal/configpaths"
	"github.com/Alia5/wiituio/keymap"
	"github.com/Alia5/wiituio/keymap/store"
)

// KeymapCommand groups keymap-related subcommands.
type KeymapCommand struct {
	Init  KeymapInit  `cmd:"" help:"Write the built-in keymap to a file"`
	Check KeymapCheck `cmd:"" help:"Validate a keymap document or a keymap directory"`
}

// KeymapInit writes the built-in keymap as a starting point for edits.
type KeymapInit struct {
	Format string `help:"Output format" enum:"json,yaml,toml" default:"json"`
	Output string `help:"Destination file path (defaults to keymap.<format> in the current directory)"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

func (k *KeymapInit) Run(logger *slog.Logger) error {
	f, err := store.ParseFormat(k.Format)
	if err != nil {
		return err
	}
	dest := k.Output
	if dest == "" {
		dest = "keymap." + configpaths.Ext(string(f))
	}
	if !k.Force {
		if _, err := os.Stat(dest); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}
	data, err := store.MarshalMapping(store.DefaultMapping(), f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return err
	}
	logger.Info("Wrote keymap", "path", dest)
	return nil
}

// KeymapCheck loads a keymap document, or every keymap referenced by a
// directory's Applications index, and prints how each entry resolves.
type KeymapCheck struct {
	Path string `arg:"" help:"Keymap document or keymap directory" type:"path"`
}

func (k *KeymapCheck) Run(logger *slog.Logger) error {
	return k.Check(os.Stdout, logger)
}

// Check writes the report to w. Unrecognized entries that are not
// provider verbs are reported but are not errors.
func (k *KeymapCheck) Check(w io.Writer, logger *slog.Logger) error {
	info, err := os.Stat(k.Path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		m, err := store.LoadMapping(k.Path)
		if err != nil {
			return err
		}
		describe(w, k.Path, m)
		return nil
	}

	s, err := store.Open(k.Path, logger)
	if err != nil {
		return err
	}
	describe(w, "default", s.Default())
	var errs []error
	for _, a := range s.Index().Applications {
		p := a.Keymap
		if !filepath.IsAbs(p) {
			p = filepath.Join(k.Path, p)
		}
		m, err := store.LoadMapping(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("application %q: %w", a.Name, err))
			continue
		}
		describe(w, a.Name, s.Default().Merge(m))
	}
	return errors.Join(errs...)
}

func describe(w io.Writer, title string, m keymap.Mapping) {
	fmt.Fprintf(w, "%s:\n", title)
	for _, b := range m.Buttons() {
		a := keymap.Compile(m[b])
		note := ""
		if a.Kind == keymap.KindOpaque && a.Verb == keymap.VerbNone {
			note = " (unrecognized)"
		}
		fmt.Fprintf(w, "  %-6s %-9s %s%s\n", b, a.Kind, a.Text, note)
	}
}
