package slug

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Option configures the slug generation behavior.
type Option func(*config)

// config holds the configuration for slug generation.
type config struct {
	maxLength     int
	separator     string
	lowercase     bool
	stripChars    string
	customReplace map[string]string
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		maxLength: 0, // no limit
		separator: "-",
		lowercase: true,
	}
}

// MaxLength sets the maximum length of the generated slug.
// If the slug exceeds this length, it will be truncated.
func MaxLength(n int) Option {
	return func(c *config) {
		c.maxLength = n
	}
}

// Separator sets the separator for the slug.
// Default is "-".
func Separator(s string) Option {
	return func(c *config) {
		c.separator = s
	}
}

// Lowercase controls whether the slug should be converted to lowercase.
// Default is true.
func Lowercase(enabled bool) Option {
	return func(c *config) {
		c.lowercase = enabled
	}
}

// StripChars sets additional characters to strip before slugification.
func StripChars(chars string) Option {
	return func(c *config) {
		c.stripChars = chars
	}
}

// CustomReplace sets custom string replacements to apply before slugification.
// Longer keys are replaced first so the result does not depend on map order.
// For example: {"&": "and", "@": "at"}
func CustomReplace(replacements map[string]string) Option {
	return func(c *config) {
		c.customReplace = replacements
	}
}

// Make creates a URL-safe slug from the input string.
//
// Combining marks are removed after canonical decomposition, so "é" becomes "e".
// Letters without a decomposition use the transliteration table ("ß" → "ss").
// Any other non-ASCII letter or digit is dropped; every remaining rune acts as a
// separator. Runs of separators collapse and both ends are trimmed.
func Make(s string, opts ...Option) string {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.customReplace) > 0 {
		keys := make([]string, 0, len(cfg.customReplace))
		for k := range cfg.customReplace {
			if k != "" {
				keys = append(keys, k)
			}
		}
		slices.SortFunc(keys, func(a, b string) int {
			if len(a) != len(b) {
				return len(b) - len(a)
			}
			return strings.Compare(a, b)
		})
		for _, k := range keys {
			s = strings.ReplaceAll(s, k, cfg.customReplace[k])
		}
	}

	if cfg.stripChars != "" {
		s = strings.Map(func(r rune) rune {
			if strings.ContainsRune(cfg.stripChars, r) {
				return -1
			}
			return r
		}, s)
	}

	s = removeMarks(s)

	var b strings.Builder
	b.Grow(len(s))

	sepLen := len([]rune(cfg.separator))
	lastWasSep := true // avoids a leading separator
	runeCount := 0

	write := func(part string) bool {
		n := len([]rune(part))
		if cfg.maxLength > 0 && runeCount+n > cfg.maxLength {
			return false
		}
		b.WriteString(part)
		runeCount += n
		return true
	}

	for _, r := range s {
		if cfg.lowercase {
			r = unicode.ToLower(r)
		}

		var part string
		switch {
		case isASCIIAlnum(r):
			part = string(r)
		default:
			if t, ok := transliterate(r); ok {
				part = t
				if !cfg.lowercase && unicode.IsUpper(r) {
					part = strings.ToUpper(part[:1]) + part[1:]
				}
			}
		}

		if part != "" {
			if !write(part) {
				break
			}
			lastWasSep = false
			continue
		}

		// Letters and digits with no ASCII form are dropped, not separated.
		if r > unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r)) {
			continue
		}

		if !lastWasSep {
			if cfg.maxLength > 0 && runeCount+sepLen > cfg.maxLength {
				break
			}
			write(cfg.separator)
			lastWasSep = true
		}
	}

	return strings.TrimSuffix(b.String(), cfg.separator)
}

// markRemover strips combining marks after canonical decomposition.
var markRemover = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func removeMarks(s string) string {
	out, _, err := transform.String(markRemover, s)
	if err != nil {
		return s
	}
	return out
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// specialLetters covers Latin letters that have no canonical decomposition.
var specialLetters = map[rune]string{
	'ß': "ss", 'ẞ': "ss",
	'æ': "ae", 'Æ': "ae",
	'œ': "oe", 'Œ': "oe",
	'ø': "o", 'Ø': "o",
	'ł': "l", 'Ł': "l",
	'đ': "d", 'Đ': "d",
	'ð': "d", 'Ð': "d",
	'þ': "th", 'Þ': "th",
	'ı': "i",
	'ħ': "h", 'Ħ': "h",
	'ŧ': "t", 'Ŧ': "t",
	'ŀ': "l", 'Ŀ': "l",
}

func transliterate(r rune) (string, bool) {
	t, ok := specialLetters[r]
	return t, ok
}
