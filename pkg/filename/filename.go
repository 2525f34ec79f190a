package filename

import (
	"strings"

	"github.com/dmitrymomot/cleanmedia/pkg/slug"
)

// Substitution replaces every occurrence of From with To in a filename stem.
type Substitution struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// DefaultSubstitutions is the built-in table applied before slugification.
// "%" is URL safe but not filename safe, so it is removed outright.
var DefaultSubstitutions = []Substitution{
	{From: "ß", To: "ss"},
	{From: "·", To: "."},
	{From: "%", To: ""},
}

// Sanitizer cleans filenames. The zero value is not usable; call New.
// A Sanitizer is immutable and safe for concurrent use.
type Sanitizer struct {
	table []Substitution
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithSubstitutions appends entries to the substitution table.
// They run after the defaults, in the given order.
func WithSubstitutions(subs ...Substitution) Option {
	return func(s *Sanitizer) {
		for _, sub := range subs {
			if sub.From != "" {
				s.table = append(s.table, sub)
			}
		}
	}
}

// New returns a Sanitizer with the default table plus any options applied.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{table: append([]Substitution(nil), DefaultSubstitutions...)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSanitizer = New()

// Clean returns the clean form of name using the default table.
func Clean(name string) string {
	return defaultSanitizer.Clean(name)
}

// NeedsCleaning reports whether Clean would change name.
func NeedsCleaning(name string) bool {
	return defaultSanitizer.NeedsCleaning(name)
}

// Split separates name into stem and extension at the final ".".
// ok is false when name contains no ".".
func Split(name string) (stem, ext string, ok bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, "", false
	}
	return name[:i], name[i+1:], true
}

// Clean returns the clean form of name.
func (s *Sanitizer) Clean(name string) string {
	stem, ext, _ := Split(name)

	for _, sub := range s.table {
		stem = strings.ReplaceAll(stem, sub.From, sub.To)
	}

	cleaned := slug.Make(stem)
	if ext == "" {
		return cleaned
	}
	return cleaned + "." + ext
}

// NeedsCleaning reports whether Clean would change name.
func (s *Sanitizer) NeedsCleaning(name string) bool {
	return s.Clean(name) != name
}
