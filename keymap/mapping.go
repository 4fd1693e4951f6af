package keymap

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Alia5/wiituio/buttons"
	"gopkg.in/yaml.v3"
)

// ErrInvalidMapping is wrapped by every structural mapping rejection.
var ErrInvalidMapping = errors.New("invalid mapping")

// Entry is one mapping value: a single name, or modifiers followed by
// the main key. Documents may spell a single name as a plain string.
type Entry []string

func (e Entry) String() string { return strings.Join(e, "+") }

func (e *Entry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = Entry{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("entry must be a string or a list of strings: %w", err)
	}
	*e = list
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if len(e) == 1 {
		return json.Marshal(e[0])
	}
	return json.Marshal([]string(e))
}

func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*e = Entry{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*e = list
		return nil
	}
	return fmt.Errorf("line %d: entry must be a string or a list of strings", node.Line)
}

func (e Entry) MarshalYAML() (any, error) {
	if len(e) == 1 {
		return e[0], nil
	}
	return []string(e), nil
}

// EntryFrom converts a decoded document value (string or list of
// strings) into an Entry.
func EntryFrom(v any) (Entry, error) {
	switch t := v.(type) {
	case string:
		return Entry{t}, nil
	case []string:
		return Entry(t), nil
	case []any:
		out := make(Entry, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list element %v is not a string", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported entry type %T", v)
}

// Mapping assigns entries to buttons.
type Mapping map[buttons.Button]Entry

// Validate checks the structure of m. Unrecognized names are not an
// error; they compile to opaque actions.
func (m Mapping) Validate() error {
	var errs []error
	for _, b := range m.Buttons() {
		e := m[b]
		if !b.Valid() {
			errs = append(errs, fmt.Errorf("unknown button %d", b))
			continue
		}
		if len(e) == 0 {
			errs = append(errs, fmt.Errorf("%s: empty entry", b))
			continue
		}
		for i, name := range e {
			if strings.TrimSpace(name) == "" {
				errs = append(errs, fmt.Errorf("%s: empty name at position %d", b, i))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}
	return nil
}

// Buttons returns the mapped buttons in canonical order.
func (m Mapping) Buttons() []buttons.Button {
	out := make([]buttons.Button, 0, len(m))
	for b := range m {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns a deep copy of m.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for b, e := range m {
		out[b] = append(Entry(nil), e...)
	}
	return out
}

// Merge returns a copy of m with every entry of override applied on top.
// Nothing is removed.
func (m Mapping) Merge(override Mapping) Mapping {
	out := m.Clone()
	for b, e := range override {
		out[b] = append(Entry(nil), e...)
	}
	return out
}

// Table is a validated, compiled mapping. Tables are immutable.
type Table struct {
	source  Mapping
	actions [buttons.Count]*Action
}

// NewTable validates and compiles m.
func NewTable(m Mapping) (*Table, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	t := &Table{source: m.Clone()}
	for b, e := range m {
		a := Compile(e)
		t.actions[b] = &a
	}
	return t, nil
}

// Mapping returns a copy of the mapping the table was built from.
func (t *Table) Mapping() Mapping { return t.source.Clone() }

// Action returns the compiled action for b, if mapped.
func (t *Table) Action(b buttons.Button) (Action, bool) {
	if t == nil || !b.Valid() || t.actions[b] == nil {
		return Action{}, false
	}
	return *t.actions[b], true
}
