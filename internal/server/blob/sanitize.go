package blob

import (
	"strings"
	"unicode"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"golang.org/x/text/unicode/norm"
)

const maxFilenameLen = 255

// SanitizeFilename reduces an uploaded filename to its last path element made
// of ASCII letters, digits, '.', '_' and '-'. Accented letters are folded to
// their base letter, runs of whitespace become one '_', everything else is dropped, and
// leading or trailing '.' and '_' are trimmed. An empty result is
// common.ErrBadFilename.
func SanitizeFilename(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	name = strings.Join(strings.Fields(norm.NFKD.String(name)), "_")

	var b strings.Builder
	for _, r := range name {
		if r < unicode.MaxASCII && (r == '.' || r == '_' || r == '-' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')) {
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), "._")
	if len(out) > maxFilenameLen {
		out = strings.TrimRight(out[:maxFilenameLen], "._")
	}
	if out == "" {
		return "", common.ErrBadFilename
	}
	return out, nil
}
