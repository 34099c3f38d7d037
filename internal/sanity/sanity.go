// Package sanity rejects path fragments (entry names, locale strings)
// that contain characters unsafe to use as filesystem path components.
package sanity

import (
	"fmt"
	"strings"

	"github.com/clitheme/clitheme/internal/strutil"
)

const bannedStart = "."

const bannedChars = `<>:"/\|?*`

// Checker carries the last rejection reason, mirroring the original's
// out-of-band error_message field.
type Checker struct {
	errorMessage string
}

// New returns a fresh Checker.
func New() *Checker {
	return &Checker{}
}

// ErrorMessage returns the reason the last Check call failed, or "" if
// the last call succeeded.
func (c *Checker) ErrorMessage() string {
	return c.errorMessage
}

// Check reports whether path is safe to use as a filesystem path
// component. It rejects an empty stripped path, any whitespace-
// separated part beginning with bannedStart, and any part containing a
// byte from bannedChars.
func (c *Checker) Check(path string) bool {
	stripped := strutil.Strip(path)
	if stripped == "" {
		c.errorMessage = "path is empty"
		return false
	}
	for _, part := range strutil.SplitWhitespace(stripped) {
		if strings.HasPrefix(part, bannedStart) {
			c.errorMessage = fmt.Sprintf("part %q begins with reserved character %q", part, bannedStart)
			return false
		}
		if idx := strings.IndexAny(part, bannedChars); idx >= 0 {
			c.errorMessage = fmt.Sprintf("part %q contains reserved character %q", part, string(part[idx]))
			return false
		}
	}
	return true
}

// Sanitize replaces every offending character in s with "_", without
// altering the bannedStart rule (a leading "." is left as-is; only
// bannedChars bytes are replaced).
func Sanitize(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(bannedChars, c) >= 0 {
			b.WriteByte('_')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
