package completion

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSharedPrefix(t *testing.T) {
	tests := []struct {
		name     string
		in       []string
		caseless bool
		want     string
	}{
		{"empty", nil, false, ""},
		{"single", []string{"apple"}, false, "apple"},
		{"common", []string{"apple", "apricot"}, false, "ap"},
		{"none", []string{"apple", "banana"}, false, ""},
		{"case sensitive", []string{"Apple", "apricot"}, false, ""},
		{"caseless keeps first", []string{"APple", "apricot"}, true, "AP"},
		{"multibyte", []string{"über", "überall"}, false, "über"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SharedPrefix(tt.in, tt.caseless); got != tt.want {
				t.Errorf("SharedPrefix(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrefix(t *testing.T) {
	f := Prefix([]string{"inbox", "Important", "archive"})
	got := Fulls(f("i"))
	want := []string{"inbox", "Important"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Prefix(i) = %q, want %q", got, want)
	}
	if got := f("zz"); len(got) != 0 {
		t.Errorf("Prefix(zz) = %v, want none", got)
	}
}

func TestMany(t *testing.T) {
	f := Many([]string{"spam", "starred", "inbox"})
	got := f("inbox st")
	want := []Candidate{{Full: "inbox starred", Short: "starred"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Many = %+v, want %+v", got, want)
	}

	all := f("")
	if len(all) != 3 {
		t.Errorf("Many(\"\") = %d candidates, want 3", len(all))
	}
}

func TestSplitLastWord(t *testing.T) {
	tests := []struct {
		in, prefix, target string
	}{
		{"", "", ""},
		{"foo", "", "foo"},
		{"foo ba", "foo ", "ba"},
		{"foo bar ", "foo bar ", ""},
	}
	for _, tt := range tests {
		p, tg := SplitLastWord(tt.in)
		if p != tt.prefix || tg != tt.target {
			t.Errorf("SplitLastWord(%q) = %q, %q; want %q, %q", tt.in, p, tg, tt.prefix, tt.target)
		}
	}
}

func TestSplitOnCommas(t *testing.T) {
	done, rest := SplitOnCommas(`"Doe, Jane" <jd@x.org>, bob@y.org, ca`)
	if want := []string{`"Doe, Jane" <jd@x.org>`, "bob@y.org"}; !reflect.DeepEqual(done, want) {
		t.Errorf("done = %q, want %q", done, want)
	}
	if rest != "ca" {
		t.Errorf("remainder = %q, want ca", rest)
	}
}

type contactSet map[string]bool

func (c contactSet) IsContact(addr string) bool { return c[addr] }

func TestEmailsRanksContactsFirst(t *testing.T) {
	f := Emails([]string{"carl@a.org", "cat@b.org", "cy@c.org"}, contactSet{"cy@c.org": true})
	got := f("bob@y.org, c")
	want := []Candidate{
		{Full: "bob@y.org, cy@c.org", Short: "cy@c.org"},
		{Full: "bob@y.org, carl@a.org", Short: "carl@a.org"},
		{Full: "bob@y.org, cat@b.org", Short: "cat@b.org"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Emails = %+v\nwant %+v", got, want)
	}
}

type fakeUsers struct {
	homes map[string]string
	names []string
}

func (u fakeUsers) HomeDir(name string) (string, bool) {
	d, ok := u.homes[name]
	return d, ok
}

func (u fakeUsers) Users() []string { return u.names }

func TestFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "mail"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "mbox"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	f := Filename(fakeUsers{})
	got := f(filepath.Join(dir, "m"))
	want := []Candidate{
		{Full: filepath.Join(dir, "mail") + "/", Short: "mail/"},
		{Full: filepath.Join(dir, "mbox"), Short: "mbox"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filename = %+v\nwant %+v", got, want)
	}
}

func TestFilenameTilde(t *testing.T) {
	users := fakeUsers{
		homes: map[string]string{"": "/home/me", "alice": "/home/alice"},
		names: []string{"alice", "albert", "bob"},
	}
	f := Filename(users)

	got := f("~/notes")
	if len(got) != 1 || got[0].Full != "/home/me/notes" || got[0].Short != "~" {
		t.Errorf("~ expansion = %+v", got)
	}

	got = f("~al")
	want := []Candidate{
		{Full: "~alice", Short: "~alice"},
		{Full: "~albert", Short: "~albert"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("user completion = %+v, want %+v", got, want)
	}
}

func TestExpandPath(t *testing.T) {
	users := fakeUsers{homes: map[string]string{"": "/home/me"}}
	got, err := ExpandPath("~/x/y", users)
	if err != nil || got != "/home/me/x/y" {
		t.Errorf("ExpandPath = %q, %v", got, err)
	}
}

func TestFuzzy(t *testing.T) {
	f := Fuzzy([]string{"inbox", "search results for foo", "thread: hello"})
	got := Fulls(f("srch"))
	if len(got) != 1 || got[0] != "search results for foo" {
		t.Errorf("Fuzzy(srch) = %q", got)
	}
	if n := len(f("")); n != 3 {
		t.Errorf("Fuzzy(\"\") = %d candidates, want 3", n)
	}
}

func TestLabels(t *testing.T) {
	f := Labels([]string{"work", "inbox", "wishlist"}, []string{"inbox"})
	got := Shorts(f("personal w"))
	want := []string{"wishlist", "work"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Labels = %q, want %q", got, want)
	}
	if got := LabelSet("a b  a c"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("LabelSet = %q", got)
	}
}
