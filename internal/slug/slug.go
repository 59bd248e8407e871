// Package slug derives URL-safe post identifiers from titles.
package slug

import "strings"

// Derive maps a title to a URL-safe slug: lowercase ASCII letters, digits and
// hyphens only. Whitespace runs collapse to a single hyphen, anything outside
// [a-zA-Z0-9] becomes a hyphen, and hyphen runs are collapsed and trimmed.
// An empty title yields an empty slug, which callers must treat as invalid.
func Derive(title string) string {
	title = strings.TrimSpace(strings.ToLower(title))

	var b strings.Builder
	b.Grow(len(title))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// IsValid reports whether s is a well-formed, non-empty slug, i.e. already in
// the form Derive produces.
func IsValid(s string) bool {
	return s != "" && Derive(s) == s
}

// Field identifies which form field the author touched last.
type Field int

const (
	FieldTitle Field = iota
	FieldSlug
)

// Tracker decides whether the slug should be re-derived when the title
// changes during interactive editing. Once the author hand-edits the slug,
// title changes stop overriding it. This replaces the original UI's
// change-subscription callback with an explicit last-edited-field flag, so
// there is no title-updates-slug-updates-itself cycle.
type Tracker struct {
	last Field
	slug string
}

// NewTracker seeds the tracker with an existing slug, e.g. when editing a
// post that already has one.
func NewTracker(existing string) *Tracker {
	return &Tracker{last: FieldTitle, slug: existing}
}

// TitleChanged records a title edit and returns the current slug. The slug is
// re-derived only while the title is the driving field.
func (t *Tracker) TitleChanged(title string) string {
	if t.last == FieldTitle {
		t.slug = Derive(title)
	}
	return t.slug
}

// SlugChanged records a hand-edit of the slug field. The value is normalized
// through Derive so the field can never hold characters a slug disallows.
func (t *Tracker) SlugChanged(value string) string {
	t.last = FieldSlug
	t.slug = Derive(value)
	return t.slug
}

// Slug returns the current slug value.
func (t *Tracker) Slug() string {
	return t.slug
}
