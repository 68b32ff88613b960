package mode

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/dshills/burrow/internal/input/keymap"
	"github.com/dshills/burrow/internal/theme"
)

// FileBrowser lets the user pick a file. Selecting a directory enters it;
// selecting a file finishes with that file's path.
type FileBrowser struct {
	List

	dir     string
	entries []os.DirEntry
	done    bool
	value   string
}

// NewFileBrowser creates a browser rooted at dir.
func NewFileBrowser(reg *keymap.Registry, dir string) (*FileBrowser, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	f := &FileBrowser{}
	f.initList(reg, FileBrowserKeymap, nil, ScrollOptions{}, f.selectEntry)
	f.On(ActionParentDir, func(h Host) { f.chdir(h, filepath.Dir(f.Dir())) })
	f.On(ActionReload, func(h Host) { f.chdir(h, f.Dir()) })
	f.On(ActionCancel, func(Host) { f.finish("") })
	if err := f.load(abs); err != nil {
		return nil, err
	}
	return f, nil
}

// Dir returns the directory being shown.
func (f *FileBrowser) Dir() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.dir
}

func (f *FileBrowser) Done() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.done
}

// Value returns the chosen path, empty when the browser was cancelled.
func (f *FileBrowser) Value() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.value
}

func (f *FileBrowser) Status() string {
	return f.Dir()
}

func (f *FileBrowser) finish(v string) {
	f.lock.Lock()
	f.done, f.value = true, v
	f.lock.Unlock()
}

func (f *FileBrowser) load(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	lines := make([]Line, 0, len(entries)+1)
	lines = append(lines, Line{{Text: "../", Color: theme.Directory}})
	for _, e := range entries {
		if e.IsDir() {
			lines = append(lines, Line{{Text: e.Name() + "/", Color: theme.Directory}})
		} else {
			lines = append(lines, Plain(e.Name()))
		}
	}

	f.lock.Lock()
	f.dir = dir
	f.entries = entries
	f.lock.Unlock()
	f.SetLines(lines)
	f.SetCursor(0)
	return nil
}

func (f *FileBrowser) chdir(h Host, dir string) {
	if err := f.load(dir); err != nil {
		h.Flash(err.Error())
	}
}

func (f *FileBrowser) selectEntry(h Host, i int) {
	dir := f.Dir()
	if i == 0 {
		f.chdir(h, filepath.Dir(dir))
		return
	}
	f.lock.Lock()
	if i-1 >= len(f.entries) {
		f.lock.Unlock()
		return
	}
	e := f.entries[i-1]
	f.lock.Unlock()

	path := filepath.Join(dir, e.Name())
	if e.IsDir() {
		f.chdir(h, path)
		return
	}
	f.finish(path)
}
