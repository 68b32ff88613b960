package keymap

import "github.com/dshills/burrow/internal/input/key"

// Status is the outcome of resolving a keystroke.
type Status int

const (
	// NotFound means the first key is not bound.
	NotFound Status = iota
	// Found means the keys resolved to an action.
	Found
	// Aborted means the user cancelled a multi-key sequence.
	Aborted
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Aborted:
		return "aborted"
	}
	return "not-found"
}

// Result is the outcome of resolving input against a keymap.
type Result struct {
	Status Status
	Action Action
	Keys   key.Sequence
	// Handled is set by a mode that performed the action itself.
	Handled bool
}

// ResultFound returns a Found result.
func ResultFound(a Action, keys ...key.Event) Result {
	return Result{Status: Found, Action: a, Keys: keys}
}

// ResultNotFound returns a NotFound result for k.
func ResultNotFound(k key.Event) Result {
	return Result{Status: NotFound, Keys: key.Sequence{k}}
}

// Prompter reads the next key of a multi-key sequence. It shows prompt
// (the description of the pending keymap) and returns false when the user
// cancels.
type Prompter func(prompt string) (key.Event, bool)

// Resolve resolves k against km. When k leads to a nested keymap, next is
// called for each further key. A key not bound in the nested keymap is
// ignored and the prompt repeats.
func Resolve(km *Keymap, k key.Event, next Prompter) Result {
	e, ok := km.Lookup(k)
	if !ok {
		return ResultNotFound(k)
	}
	keys := key.Sequence{k}
	prompt := e.Description
	for e.IsKeymap() {
		sub := e.Sub
		nk, ok := next(prompt)
		if !ok {
			return Result{Status: Aborted, Keys: keys}
		}
		if ne, found := sub.Lookup(nk); found {
			keys = append(keys, nk)
			e = ne
			prompt = ne.Description
		}
	}
	return Result{Status: Found, Action: e.Action, Keys: keys}
}
