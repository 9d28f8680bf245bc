package ascii

import "strings"

const (
	// CustomCharset selects Params.CustomCharset instead of a built-in set.
	CustomCharset = "Custom"
	// DefaultCharset is used when a name is unknown or resolves to nothing.
	DefaultCharset = "Blocks (5)"
)

var charsets = map[string]string{
	"Blocks (5)":   " ░▒▓█",
	"Classic (10)": " .:-=+*#%@",
	"Dense (16)":   " .'`\",:;Il!i><~+_-?][}{1)(|\\/*tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$",
}

var charsetOrder = []string{"Blocks (5)", "Classic (10)", "Dense (16)"}

// CharsetNames returns the built-in charset names in display order.
func CharsetNames() []string {
	return append([]string(nil), charsetOrder...)
}

// Charset returns the glyphs of a built-in charset.
func Charset(name string) (string, bool) {
	s, ok := charsets[name]

	return s, ok
}

// Glyphs resolves the active charset for p.
//
// A non-empty CustomCharset (trailing newlines stripped) wins when Charset is
// [CustomCharset]. Otherwise the named built-in set is used, falling back to
// [DefaultCharset] when the name is unknown or the set is empty.
func (p Params) Glyphs() []rune {
	custom := strings.TrimRight(p.CustomCharset, "\n")

	var set string
	if p.Charset == CustomCharset && custom != "" {
		set = custom
	} else {
		set = charsets[p.Charset]
	}

	if set == "" {
		set = charsets[DefaultCharset]
	}

	return []rune(set)
}
