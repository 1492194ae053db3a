package filename

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

// latin1Mangle reproduces the UTF-8 bytes being read back as Latin-1.
func latin1Mangle(s string) string {
	runes := make([]rune, 0, len(s))
	for _, b := range []byte(s) {
		runes = append(runes, rune(b))
	}
	return string(runes)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "ascii", in: "report.txt", want: "report.txt"},
		{name: "utf8 cjk untouched", in: "报告.txt", want: "报告.txt"},
		{name: "utf8 latin untouched", in: "café.txt", want: "café.txt"},
		{name: "mangled cjk", in: latin1Mangle("报告.txt"), want: "报告.txt"},
		{name: "mangled japanese", in: latin1Mangle("テスト.pdf"), want: "テスト.pdf"},
		{name: "mangled accent", in: latin1Mangle("naïve.md"), want: "naïve.md"},
		{name: "nfd normalized", in: "e\u0301.txt", want: "\u00e9.txt"},
		{name: "mangled folder path", in: latin1Mangle("文档/子目录/a.txt"), want: "文档/子目录/a.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.in))
		})
	}
}

func TestDecodeInvalidUTF8(t *testing.T) {
	// Latin-1 encoded "café.txt" is not valid UTF-8.
	got := Decode("caf\xe9.txt")

	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, ".txt")
}

func TestRepairLatin1(t *testing.T) {
	_, ok := repairLatin1("plain")
	assert.False(t, ok, "ascii needs no repair")

	_, ok = repairLatin1("café")
	assert.False(t, ok, "bytes that are not UTF-8 stay as typed")

	_, ok = repairLatin1("报告")
	assert.False(t, ok, "runes above U+00FF were never Latin-1")

	fixed, ok := repairLatin1(latin1Mangle("über"))
	assert.True(t, ok)
	assert.Equal(t, "über", fixed)
}
