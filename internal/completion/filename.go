package completion

import (
	"bufio"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// UserDB resolves login names for "~user" completion.
type UserDB interface {
	// HomeDir returns the home directory of name; empty name means the
	// current user.
	HomeDir(name string) (string, bool)
	// Users lists known login names.
	Users() []string
}

// SystemUsers is the UserDB backed by the operating system.
type SystemUsers struct{}

func (SystemUsers) HomeDir(name string) (string, bool) {
	var (
		u   *user.User
		err error
	)
	if name == "" {
		u, err = user.Current()
	} else {
		u, err = user.Lookup(name)
	}
	if err != nil || u.HomeDir == "" {
		return "", false
	}
	return u.HomeDir, true
}

// Users reads login names from /etc/passwd.
func (SystemUsers) Users() []string {
	f, err := os.Open("/etc/passwd")
	if err != nil {
		return nil
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if name, _, ok := strings.Cut(line, ":"); ok {
			names = append(names, name)
		}
	}
	return names
}

var tilde = regexp.MustCompile(`~([^\s/]*)`)

// Filename completes paths. A "~name" component is expanded to that
// user's home directory, or completed against known user names when no
// such user exists. Directories get a trailing slash.
func Filename(users UserDB) Func {
	if users == nil {
		users = SystemUsers{}
	}
	return func(input string) []Candidate {
		if m := tilde.FindStringSubmatchIndex(input); m != nil {
			full := input[m[0]:m[1]]
			name := input[m[2]:m[3]]
			if dir, ok := users.HomeDir(name); ok {
				label := "~" + name
				return []Candidate{{Full: strings.Replace(input, full, dir, 1), Short: label}}
			}
			var out []Candidate
			for _, u := range users.Users() {
				if strings.HasPrefix(u, name) {
					out = append(out, Candidate{
						Full:  strings.Replace(input, "~"+name, "~"+u, 1),
						Short: "~" + u,
					})
				}
			}
			return out
		}

		matches, err := filepath.Glob(globEscape(input) + "*")
		if err != nil {
			return nil
		}
		sort.Strings(matches)
		out := make([]Candidate, 0, len(matches))
		for _, fn := range matches {
			suffix := ""
			if fi, err := os.Stat(fn); err == nil && fi.IsDir() {
				suffix = "/"
			}
			out = append(out, Candidate{Full: fn + suffix, Short: filepath.Base(fn) + suffix})
		}
		return out
	}
}

// ExpandPath expands a leading "~" or "~user" and makes path absolute.
func ExpandPath(path string, users UserDB) (string, error) {
	if users == nil {
		users = SystemUsers{}
	}
	if strings.HasPrefix(path, "~") {
		name, rest, _ := strings.Cut(path[1:], "/")
		if dir, ok := users.HomeDir(name); ok {
			path = filepath.Join(dir, rest)
		}
	}
	return filepath.Abs(path)
}

func globEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}
