package params

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// lineLexer splits a parameter line. Keys cannot contain '=' or '|'; values
// may contain '=' and are reassembled from Text and Eq tokens.
var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Sep", Pattern: `\|`},
	{Name: "Eq", Pattern: `=`},
	{Name: "Text", Pattern: `[^|=]+`},
})

type line struct {
	Entries []*lineEntry `parser:"@@? ( Sep @@? )*"`
}

type lineEntry struct {
	Key   string `parser:"@Text"`
	Value string `parser:"( Eq @( Text | Eq )* )?"`
}

var lineParser = participle.MustBuild[line](
	participle.Lexer(lineLexer),
)

// Parse decodes a "|KEY=VALUE|..." line. A trailing NUL or line break is
// ignored. Repeated keys keep their first value and are reported by
// Duplicates.
func Parse(text string) (*Collection, error) {
	text = strings.TrimRight(text, "\x00\r\n")
	c := New()
	if strings.Trim(text, "|") == "" {
		return c, nil
	}
	ln, err := lineParser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("parse parameter line: %w", err)
	}
	for _, e := range ln.Entries {
		c.Add(e.Key, e.Value)
	}
	return c, nil
}

// MustParse is Parse for literals known to be valid; it panics on error.
func MustParse(text string) *Collection {
	c, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return c
}
