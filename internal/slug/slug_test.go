package slug

import (
	"regexp"
	"testing"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestDerive(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Hello World!", "hello-world"},
		{"already a slug", "hello-world", "hello-world"},
		{"mixed case", "My First POST", "my-first-post"},
		{"punctuation runs", "What?!? Really...", "what-really"},
		{"leading and trailing space", "  padded title  ", "padded-title"},
		{"whitespace runs", "a \t b", "a-b"},
		{"digits", "Top 10 Tips", "top-10-tips"},
		{"unicode", "Caffè è vita", "caff-vita"},
		{"only punctuation", "!!!", ""},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Derive(tc.title)
			if got != tc.want {
				t.Errorf("Derive(%q) = %q, want %q", tc.title, got, tc.want)
			}
			if got != "" && !slugPattern.MatchString(got) {
				t.Errorf("Derive(%q) = %q does not match %s", tc.title, got, slugPattern)
			}
		})
	}
}

func TestDeriveIdempotent(t *testing.T) {
	titles := []string{"Hello World!", "a  b  c", "Top 10 Tips", "---x---", "Ünïcödé"}
	for _, title := range titles {
		once := Derive(title)
		twice := Derive(once)
		if once != twice {
			t.Errorf("Derive not idempotent for %q: %q -> %q", title, once, twice)
		}
	}
}

func TestIsValid(t *testing.T) {
	valid := []string{"hello-world", "a", "top-10-tips"}
	for _, s := range valid {
		if !IsValid(s) {
			t.Errorf("IsValid(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "Hello", "hello world", "hello--world", "-hello", "hello-"}
	for _, s := range invalid {
		if IsValid(s) {
			t.Errorf("IsValid(%q) = true, want false", s)
		}
	}
}

func TestTracker(t *testing.T) {
	t.Run("title drives slug until slug is hand-edited", func(t *testing.T) {
		tr := NewTracker("")

		if got := tr.TitleChanged("Hello"); got != "hello" {
			t.Errorf("slug after title edit = %q, want %q", got, "hello")
		}
		if got := tr.TitleChanged("Hello World"); got != "hello-world" {
			t.Errorf("slug after second title edit = %q, want %q", got, "hello-world")
		}
	})

	t.Run("hand-edited slug is not overridden by title changes", func(t *testing.T) {
		tr := NewTracker("")
		tr.TitleChanged("Hello")
		tr.SlugChanged("custom-slug")

		if got := tr.TitleChanged("Completely Different"); got != "custom-slug" {
			t.Errorf("slug after title edit = %q, want hand-edited %q", got, "custom-slug")
		}
	})

	t.Run("slug edits are normalized", func(t *testing.T) {
		tr := NewTracker("")
		if got := tr.SlugChanged("My Custom Slug!"); got != "my-custom-slug" {
			t.Errorf("SlugChanged = %q, want %q", got, "my-custom-slug")
		}
	})

	t.Run("editing an existing post seeds from its slug", func(t *testing.T) {
		tr := NewTracker("existing-slug")
		if got := tr.Slug(); got != "existing-slug" {
			t.Errorf("seeded slug = %q, want %q", got, "existing-slug")
		}
	})
}
