package packs

import (
	"fmt"
	"strings"
	"unicode"
)

// maxNameLen is the Bot API limit for sticker set names.
const maxNameLen = 64

// Name derives a sticker set name from a user-chosen prefix, the owner and
// the bot identity: <prefix>_<uid>_by_<bot>. The platform requires names to
// start with a letter and to contain only latin letters, digits and
// underscores, and pack names created by a bot must end with _by_<bot>.
func Name(prefix string, userID int64, botUsername string) string {
	prefix = sanitize(prefix)
	if prefix == "" {
		prefix = "pack"
	}
	suffix := fmt.Sprintf("_%d_by_%s", userID, strings.TrimPrefix(botUsername, "@"))
	if len(prefix)+len(suffix) > maxNameLen {
		prefix = prefix[:maxNameLen-len(suffix)]
	}
	return prefix + suffix
}

// KangName is the name of a user's default grab-bag pack.
func KangName(userID int64, botUsername string) string {
	return Name("kang", userID, botUsername)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || unicode.IsSpace(r):
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	// Must start with a letter.
	for out != "" && !(out[0] >= 'a' && out[0] <= 'z') {
		out = out[1:]
	}
	return out
}
