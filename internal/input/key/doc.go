// Package key provides the keystroke model used by the input loop.
//
// A keystroke is an Event: a Key (a special key or KeyRune), the rune for
// character keys, and a Modifier set. Events are compared through their
// canonical spec string, which is also the key used by keymaps.
//
// # Key Specifications
//
// Specs may be written in several forms that all normalize to the same
// canonical string:
//
//   - Characters: "a", "G", "?", "<Space>"
//   - Control and meta, console style: "C-x", "M-f"
//   - Control and meta, modifier style: "Ctrl+x", "Alt+f"
//   - Bracketed names: "<Esc>", "<CR>", "<C-l>", "<S-Tab>"
//
// A Sequence is a space separated list of specs such as "g g" or "C-x k".
package key
