package mode

import "github.com/dshills/burrow/internal/input/keymap"

// Registry names of the stock keymaps.
const (
	ScrollKeymap      = "scroll-mode"
	LineCursorKeymap  = "line-cursor-mode"
	BufferListKeymap  = "buffer-list-mode"
	FileBrowserKeymap = "file-browser-mode"
	CompletionKeymap  = "completion-mode"
	HelpKeymap        = "help-mode"
	LogKeymap         = "log-mode"
	TextKeymap        = "text-mode"
)

// Scroll and cursor actions.
const (
	ActionLineDown     keymap.Action = "line-down"
	ActionLineUp       keymap.Action = "line-up"
	ActionPageDown     keymap.Action = "page-down"
	ActionPageUp       keymap.Action = "page-up"
	ActionHalfPageDown keymap.Action = "half-page-down"
	ActionHalfPageUp   keymap.Action = "half-page-up"
	ActionJumpToStart  keymap.Action = "jump-to-start"
	ActionJumpToEnd    keymap.Action = "jump-to-end"
	ActionSearch       keymap.Action = "search-in-buffer"
	ActionSearchNext   keymap.Action = "continue-search-in-buffer"
	ActionCursorDown   keymap.Action = "cursor-down"
	ActionCursorUp     keymap.Action = "cursor-up"
	ActionSelect       keymap.Action = "select"
	ActionKillBuffer   keymap.Action = "kill-selected-buffer"
	ActionReload       keymap.Action = "reload"
	ActionParentDir    keymap.Action = "parent-directory"
	ActionCancel       keymap.Action = "cancel"
)

// SearchContinueKey is the key that continues an in-buffer search; any
// other key ends it.
const SearchContinueKey = "n"

// RegisterKeymaps defines the stock keymaps in reg.
func RegisterKeymaps(reg *keymap.Registry) error {
	defs := []struct {
		name  string
		build func(*keymap.Keymap) error
	}{
		{ScrollKeymap, func(km *keymap.Keymap) error {
			return addAll(km,
				binding{ActionLineDown, "Down one line", []string{"j", "<Down>"}},
				binding{ActionLineUp, "Up one line", []string{"k", "<Up>"}},
				binding{ActionPageDown, "Down one page", []string{"<Space>", "<PageDown>", "C-f"}},
				binding{ActionPageUp, "Up one page", []string{"<PageUp>", "-", "C-b"}},
				binding{ActionHalfPageDown, "Down one half page", []string{"C-d"}},
				binding{ActionHalfPageUp, "Up one half page", []string{"C-u"}},
				binding{ActionJumpToStart, "Jump to top", []string{"<Home>", "^"}},
				binding{ActionJumpToEnd, "Jump to bottom", []string{"<End>", "$"}},
				binding{ActionSearch, "Search in current buffer", []string{"/"}},
				binding{ActionSearchNext, "Jump to next search occurrence in buffer", []string{SearchContinueKey}},
			)
		}},
		{LineCursorKeymap, func(km *keymap.Keymap) error {
			return addAll(km,
				binding{ActionCursorDown, "Move cursor down one line", []string{"j", "<Down>"}},
				binding{ActionCursorUp, "Move cursor up one line", []string{"k", "<Up>"}},
				binding{ActionSelect, "Select this item", []string{"<CR>"}},
			)
		}},
		{BufferListKeymap, func(km *keymap.Keymap) error {
			return addAll(km,
				binding{ActionKillBuffer, "Kill selected buffer", []string{"X"}},
				binding{ActionReload, "Refresh the list", []string{"u"}},
			)
		}},
		{FileBrowserKeymap, func(km *keymap.Keymap) error {
			return addAll(km,
				binding{ActionParentDir, "Go to parent directory", []string{"<BS>", "h"}},
				binding{ActionReload, "Refresh directory", []string{"u"}},
				binding{ActionCancel, "Cancel", []string{"q"}},
			)
		}},
		{CompletionKeymap, nil},
		{HelpKeymap, nil},
		{LogKeymap, nil},
		{TextKeymap, nil},
	}
	for _, d := range defs {
		if _, err := reg.Define(d.name, d.build); err != nil {
			return err
		}
	}
	return nil
}

type binding struct {
	action keymap.Action
	desc   string
	keys   []string
}

func addAll(km *keymap.Keymap, bindings ...binding) error {
	for _, b := range bindings {
		if err := km.Add(b.action, b.desc, b.keys...); err != nil {
			return err
		}
	}
	return nil
}
