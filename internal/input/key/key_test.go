package key

import (
	"errors"
	"testing"
)

func TestParseCanonical(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{"a", "a"},
		{"G", "G"},
		{"?", "?"},
		{"-", "-"},
		{"<Space>", "<Space>"},
		{"space", "<Space>"},
		{"C-x", "<C-x>"},
		{"C-X", "<C-x>"},
		{"<C-l>", "<C-l>"},
		{"Ctrl+g", "<C-g>"},
		{"M-f", "<M-f>"},
		{"Alt+f", "<M-f>"},
		{"<C-M-x>", "<C-M-x>"},
		{"C--", "<C-minus>"},
		{"<C-minus>", "<C-minus>"},
		{"Enter", "<CR>"},
		{"<CR>", "<CR>"},
		{"<Esc>", "<Esc>"},
		{"escape", "<Esc>"},
		{"Tab", "<Tab>"},
		{"<S-Tab>", "<S-Tab>"},
		{"S-Tab", "<S-Tab>"},
		{"PgDn", "<PageDown>"},
		{"<F5>", "<F5>"},
		{"<lt>", "<"},
		{"<", "<"},
	}

	for _, tt := range tests {
		got, err := NormalizeSpec(tt.spec)
		if err != nil {
			t.Errorf("NormalizeSpec(%q) error = %v", tt.spec, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeSpec(%q) = %q, want %q", tt.spec, got, tt.want)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	specs := []string{"a", "<C-x>", "<M-f>", "<CR>", "<S-Tab>", "<Space>", "<C-minus>", "<Up>"}
	for _, spec := range specs {
		ev := MustParse(spec)
		again, err := Parse(ev.Canonical())
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", ev.Canonical(), err)
		}
		if !again.Equals(ev) {
			t.Errorf("round trip of %q gave %q", spec, again.Canonical())
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		spec string
		want error
	}{
		{"", ErrEmptySpec},
		{"   ", ErrEmptySpec},
		{"<Bogus>", ErrInvalidSpec},
		{"Hyper+x", ErrInvalidSpec},
		{"<Q-x>", ErrInvalidSpec},
		{"notakey", ErrInvalidSpec},
	}
	for _, tt := range tests {
		_, err := Parse(tt.spec)
		if !errors.Is(err, tt.want) {
			t.Errorf("Parse(%q) error = %v, want %v", tt.spec, err, tt.want)
		}
	}
}

func TestEventNormalize(t *testing.T) {
	shifted := Event{Key: KeyRune, Rune: 'A', Modifiers: ModShift}
	if got := shifted.Canonical(); got != "A" {
		t.Errorf("shifted A = %q, want A", got)
	}

	ctrl := Event{Key: KeyRune, Rune: 'L', Modifiers: ModCtrl}
	if !ctrl.Equals(Ctrl('l')) {
		t.Errorf("Ctrl+L should equal Ctrl('l'), got %q", ctrl.Canonical())
	}

	backtab := Event{Key: KeyTab, Modifiers: ModShift}
	if got := backtab.Canonical(); got != "<S-Tab>" {
		t.Errorf("Shift+Tab = %q, want <S-Tab>", got)
	}
}

func TestEventPredicates(t *testing.T) {
	if !NewRuneEvent('x', ModNone).IsPrintable() {
		t.Error("x should be printable")
	}
	if Ctrl('x').IsPrintable() {
		t.Error("C-x should not be printable")
	}
	if NewSpecialEvent(KeyEnter, ModNone).IsRune() {
		t.Error("Enter is not a rune")
	}
	if !Ctrl('g').Matches("C-g") {
		t.Error("Ctrl('g') should match C-g")
	}
	if Ctrl('g').Matches("g") {
		t.Error("Ctrl('g') should not match g")
	}
}

func TestParseSequence(t *testing.T) {
	seq, err := ParseSequence("C-x  k")
	if err != nil {
		t.Fatalf("ParseSequence error = %v", err)
	}
	if got := seq.String(); got != "<C-x> k" {
		t.Errorf("String() = %q", got)
	}

	prefix, _ := ParseSequence("C-x")
	if !seq.HasPrefix(prefix) {
		t.Error("C-x k should have prefix C-x")
	}
	other, _ := ParseSequence("C-x j")
	if seq.HasPrefix(other) {
		t.Error("C-x k should not have prefix C-x j")
	}

	if _, err := ParseSequence(""); !errors.Is(err, ErrEmptySpec) {
		t.Errorf("empty sequence error = %v", err)
	}
}
