// Package filename turns arbitrary uploaded filenames into clean,
// URL- and filesystem-safe names while keeping the extension untouched.
//
// Cleaning works on the stem only. The extension (everything after the final
// ".") is split off, an ordered substitution table is applied to the stem
// ("ß" → "ss", "·" → ".", "%" removed), the stem is slugified with
// package slug and the extension is appended again:
//
//	filename.Clean("Bücher %1.jpg")     // "bucher-1.jpg"
//	filename.Clean("straße·test%.png")  // "strasse-test.png"
//	filename.Clean("README")            // "readme"
//
// Clean is total and idempotent: Clean(Clean(s)) == Clean(s) for every s.
//
// A name without a "." has no extension and is returned as the bare slug,
// without a trailing dot. A trailing "." is treated the same way. A name that
// starts with "." and has no other dot (".htaccess") has an empty stem and is
// returned unchanged.
//
// Additional substitutions can be supplied with WithSubstitutions or loaded
// from a YAML file:
//
//	substitutions:
//	  - from: "&"
//	    to: " and "
//	  - from: "€"
//	    to: "eur"
//
//	table, err := filename.LoadSubstitutions("substitutions.yaml")
//	s := filename.New(filename.WithSubstitutions(table...))
//
// The slug pass runs after every substitution, so extra entries cannot make
// the result unsafe.
package filename
