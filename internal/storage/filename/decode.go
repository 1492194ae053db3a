// Package filename repairs filenames that were mangled by transport
// decoding before they reach the storage layer.
//
// Browsers send multipart filenames as raw UTF-8, but some stacks along the
// way decode those bytes as Latin-1 and re-encode them, turning "报告.txt"
// into "æ\u008a¥å\u0091\u008a.txt". Legacy clients may also send bytes in a
// local code page. Decode undoes both and returns NFC-normalized UTF-8.
package filename

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/unicode/norm"
)

// Decode returns the filename as it was originally typed by the user.
func Decode(raw string) string {
	if raw == "" {
		return raw
	}

	if !utf8.ValidString(raw) {
		return norm.NFC.String(transcode([]byte(raw)))
	}
	if fixed, ok := repairLatin1(raw); ok {
		raw = fixed
	}
	return norm.NFC.String(raw)
}

// repairLatin1 reverses a UTF-8 → Latin-1 → UTF-8 double encoding. It only
// fires when every rune fits in one byte, at least one is non-ASCII, and
// the recovered bytes form valid UTF-8.
func repairLatin1(s string) (string, bool) {
	buf := make([]byte, 0, len(s))
	high := false
	for _, r := range s {
		if r > 0xFF {
			return "", false
		}
		if r >= 0x80 {
			high = true
		}
		buf = append(buf, byte(r))
	}
	if !high || !utf8.Valid(buf) {
		return "", false
	}
	return string(buf), true
}

// transcode converts bytes in an unknown legacy charset to UTF-8.
func transcode(b []byte) string {
	detector := chardet.NewTextDetector()
	if result, err := detector.DetectBest(b); err == nil && result != nil {
		if out, ok := decodeAs(result.Charset, b); ok {
			return out
		}
	}

	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}

func decodeAs(charset string, b []byte) (string, bool) {
	for _, label := range []string{charset, strings.ReplaceAll(charset, "-", "")} {
		enc, err := htmlindex.Get(label)
		if err != nil {
			continue
		}
		out, err := enc.NewDecoder().Bytes(b)
		if err != nil || !utf8.Valid(out) {
			continue
		}
		return string(out), true
	}
	return "", false
}
