// Package keymap binds keystrokes to named actions.
//
// A Keymap maps each key to either an action or a nested Keymap, so
// multi-key commands such as "g g" are chains of keymaps. Resolve walks the
// chain, asking for further keys as needed, and reports a Result whose
// status distinguishes a bound action, an unbound key and a sequence the
// user aborted.
//
// A Registry holds the per-mode keymaps and a table of externally defined
// action handlers. Both can be extended until the Registry is frozen,
// which happens before the input loop starts.
package keymap
