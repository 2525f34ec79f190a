package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf16"
	"unicode/utf8"
)

// AjaxAction is the admin-ajax action name of the clean endpoint.
const AjaxAction = "clean_existing_media_filenames"

// writeLegacy writes v as the WordPress JSON helper does: status 200,
// non-ASCII as \uXXXX escapes and "/" as "\/".
func writeLegacy(w http.ResponseWriter, v any) {
	body, err := legacyJSON(v)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func legacyJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	raw := bytes.TrimRight(buf.Bytes(), "\n")

	out := make([]byte, 0, len(raw))
	inString := false
	for i := 0; i < len(raw); {
		c := raw[i]
		switch {
		case c == '"' && (i == 0 || !escaped(raw, i)):
			inString = !inString
			out = append(out, c)
			i++
		case inString && c == '/':
			out = append(out, '\\', '/')
			i++
		case inString && c >= utf8.RuneSelf:
			r, size := utf8.DecodeRune(raw[i:])
			if r >= 0x10000 {
				hi, lo := utf16.EncodeRune(r)
				out = fmt.Appendf(out, `\u%04x\u%04x`, hi, lo)
			} else {
				out = fmt.Appendf(out, `\u%04x`, r)
			}
			i += size
		default:
			out = append(out, c)
			i++
		}
	}
	return out, nil
}

// escaped reports whether the quote at raw[i] is preceded by an odd number
// of backslashes.
func escaped(raw []byte, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && raw[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}
