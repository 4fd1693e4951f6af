package keymap

import (
	"strings"

	"github.com/Alia5/wiituio/device/keyboard"
	"github.com/Alia5/wiituio/device/mouse"
)

// Kind discriminates the Action variants.
type Kind uint8

const (
	KindOpaque Kind = iota
	KindKey
	KindModified
	KindMouse
)

func (k Kind) String() string {
	switch k {
	case KindKey:
		return "key"
	case KindModified:
		return "modified"
	case KindMouse:
		return "mouse"
	default:
		return "opaque"
	}
}

// Verb is an action text the resolver does not handle itself but that
// the provider interprets.
type Verb uint8

const (
	VerbNone Verb = iota
	VerbTouchMaster
	VerbTouchSlave
	VerbMouseToggle
)

var verbNames = map[Verb]string{
	VerbTouchMaster: "TouchMaster",
	VerbTouchSlave:  "TouchSlave",
	VerbMouseToggle: "MouseToggle",
}

func (v Verb) String() string {
	if n, ok := verbNames[v]; ok {
		return n
	}
	return "None"
}

// ParseVerb matches text against the known verbs, ignoring case.
func ParseVerb(text string) Verb {
	t := strings.TrimSpace(text)
	for v, n := range verbNames {
		if strings.EqualFold(t, n) {
			return v
		}
	}
	return VerbNone
}

// Action is a compiled mapping entry.
type Action struct {
	Kind Kind
	// Text is the entry as written; list entries are joined with "+".
	Text  string
	Key   keyboard.Key   // KindKey, KindModified
	Mods  []keyboard.Key // KindModified, press order
	Mouse mouse.Button   // KindMouse
	Verb  Verb           // KindOpaque
}

// Handled reports whether the resolver emits output for this action.
func (a Action) Handled() bool { return a.Kind != KindOpaque }

func (a Action) String() string { return a.Kind.String() + "(" + a.Text + ")" }

// Compile classifies a single entry. It never fails: anything that is not
// a recognized key or mouse form becomes an opaque action.
func Compile(e Entry) Action {
	text := strings.Join(e, "+")
	switch len(e) {
	case 0:
		return Action{Kind: KindOpaque}
	case 1:
		if k, ok := LookupKey(e[0]); ok {
			return Action{Kind: KindKey, Text: text, Key: k}
		}
		if b, ok := LookupMouse(e[0]); ok {
			return Action{Kind: KindMouse, Text: text, Mouse: b}
		}
		return Action{Kind: KindOpaque, Text: text, Verb: ParseVerb(e[0])}
	}

	main, ok := LookupKey(e[len(e)-1])
	if !ok {
		return Action{Kind: KindOpaque, Text: text}
	}
	mods := make([]keyboard.Key, 0, len(e)-1)
	for _, name := range e[:len(e)-1] {
		// Unknown modifier names are dropped; the main key still fires.
		if k, ok := LookupKey(name); ok {
			mods = append(mods, k)
		}
	}
	return Action{Kind: KindModified, Text: text, Key: main, Mods: mods}
}
