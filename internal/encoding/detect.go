// Package encoding decides how uploaded activity-export bytes become text.
//
// Device exports in the wild arrive in UTF-8, Shift-JIS (CP932, common for
// Japanese running watches) or Latin-1. Detection tries candidates in that
// order and scores each by its replacement-character ratio after decoding.
package encoding

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// MaxReplacementRatio is the highest tolerated fraction of replacement
// characters in a decoded candidate. Above this the candidate is rejected.
var MaxReplacementRatio = 0.05

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Result describes a successful decode.
type Result struct {
	Text       string  // decoded text
	Encoding   string  // "utf-8", "shift_jis", or "latin-1"
	Confidence float64 // 0..1, derived from the replacement ratio
}

// UnsupportedEncodingError is returned when no candidate decodes the input
// below the replacement threshold.
type UnsupportedEncodingError struct {
	Tried []string
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("unsupported encoding (tried: %s)", strings.Join(e.Tried, ", "))
}

// Detect decodes raw bytes to text, trying UTF-8 first, then Shift-JIS,
// then Latin-1. A UTF-8 BOM is stripped. ASCII-range content decodes
// identically under all three candidates, so it round-trips byte-for-byte.
func Detect(data []byte) (Result, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if utf8.Valid(data) {
		return Result{Text: string(data), Encoding: "utf-8", Confidence: 1.0}, nil
	}

	var tried []string

	// Shift-JIS: the decoder substitutes U+FFFD for byte sequences it cannot
	// map, so the replacement ratio measures how plausible the candidate is.
	// Control-heavy output means binary input, not a mojibake text file.
	if text, ratio, err := decodeWith(data, "shift_jis"); err == nil && ratio <= MaxReplacementRatio && controlRatio(text) <= MaxReplacementRatio {
		return Result{Text: text, Encoding: "shift_jis", Confidence: 1.0 - ratio}, nil
	}
	tried = append(tried, "shift_jis")

	// Latin-1 maps every byte to a code point, so it never produces
	// replacements. Reject it anyway when the input is dominated by control
	// bytes; that indicates binary data, not a text export.
	if text, _, err := decodeWith(data, "latin-1"); err == nil {
		if ratio := controlRatio(text); ratio <= MaxReplacementRatio {
			return Result{Text: text, Encoding: "latin-1", Confidence: 0.5}, nil
		}
	}
	tried = append(tried, "latin-1")

	tried = append([]string{"utf-8"}, tried...)
	return Result{}, &UnsupportedEncodingError{Tried: tried}
}

// decodeWith decodes data with the named candidate and returns the decoded
// text plus its replacement-character ratio.
func decodeWith(data []byte, name string) (string, float64, error) {
	var t transform.Transformer
	switch name {
	case "shift_jis":
		t = japanese.ShiftJIS.NewDecoder()
	case "latin-1":
		t = charmap.ISO8859_1.NewDecoder()
	default:
		return "", 0, fmt.Errorf("unknown encoding candidate: %s", name)
	}

	decoded, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", 0, err
	}

	text := string(decoded)
	return text, replacementRatio(text), nil
}

// replacementRatio returns the fraction of runes that are U+FFFD.
func replacementRatio(s string) float64 {
	if s == "" {
		return 0
	}
	total, bad := 0, 0
	for _, r := range s {
		total++
		if r == utf8.RuneError {
			bad++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total)
}

// controlRatio returns the fraction of runes that are control characters
// other than tab, CR and LF.
func controlRatio(s string) float64 {
	if s == "" {
		return 0
	}
	total, bad := 0, 0
	for _, r := range s {
		total++
		if r < 0x20 && r != '\t' && r != '\r' && r != '\n' {
			bad++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total)
}
