// Package slug converts arbitrary strings into URL- and filesystem-safe slugs.
//
// A slug contains only lowercase ASCII letters, digits and the separator
// (default "-"). Diacritics are removed with Unicode canonical decomposition
// (golang.org/x/text), a small table covers Latin letters that do not
// decompose ("ß" → "ss", "æ" → "ae", "ø" → "o"), and letters from scripts
// with no ASCII form are dropped. Everything else becomes a separator; runs
// collapse and both ends are trimmed.
//
// # Usage
//
//	import "github.com/dmitrymomot/cleanmedia/pkg/slug"
//
//	s := slug.Make("Bücher über Straße")
//	// Result: "bucher-uber-strasse"
//
//	s = slug.Make("Price: $99.99",
//		slug.MaxLength(10),
//		slug.CustomReplace(map[string]string{"$": "usd"}),
//	)
//	// Result: "price-usd9"
//
// # Configuration Options
//
//   - MaxLength: maximum slug length in runes
//   - Separator: separator string (default "-")
//   - Lowercase: lowercase conversion (default true)
//   - StripChars: characters removed before processing
//   - CustomReplace: replacements applied before processing, longest key first
//
// Make is idempotent with default options: Make(Make(s)) == Make(s).
//
// All functions in this package are safe for concurrent use.
package slug
