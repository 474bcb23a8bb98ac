package valuevalidator

import (
	"fmt"
	"net"
	"net/mail"
	"regexp"
	"time"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
)

var (
	colorHexRe = regexp.MustCompile(`^#([0-9A-Fa-f]{3,4}|([0-9A-Fa-f]{2}){3,4})$`)
	hostnameRe = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)
)

// FormatValidator validates the string formats other than URIs. Unknown
// formats are accepted.
type FormatValidator struct {
	Format string
}

// Validate implements problem.ValueValidator.
func (vld FormatValidator) Validate(doc *document.Document, id document.NodeID, path string, c *problem.Collector) {
	n := doc.Node(doc.Resolve(id))
	if n == nil || n.Kind != document.KindString {
		return
	}
	msg := checkFormat(vld.Format, n.Value)
	if msg == "" {
		return
	}
	at := doc.Node(id)
	c.Add(problem.Problem{
		Level:    problem.LevelError,
		Path:     path,
		Offset:   at.Offset,
		Length:   at.Length,
		Message:  msg,
		Got:      n.Value,
		Expected: vld.Format,
	})
}

// KnownFormat reports whether format is checked by FormatValidator.
func KnownFormat(format string) bool {
	switch format {
	case "email", "color-hex", "date-time", "date", "time", "ipv4", "ipv6", "hostname":
		return true
	}
	return false
}

func checkFormat(format, s string) string {
	switch format {
	case "email":
		if a, err := mail.ParseAddress(s); err != nil || a.Address != s {
			return "String is not an e-mail address."
		}
	case "color-hex":
		if !colorHexRe.MatchString(s) {
			return "Invalid color format. Use #RGB, #RGBA, #RRGGBB or #RRGGBBAA."
		}
	case "date-time":
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return "String is not a RFC3339 date-time."
		}
	case "date":
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return "String is not a RFC3339 date."
		}
	case "time":
		if _, err := time.Parse("15:04:05Z07:00", s); err != nil {
			if _, err2 := time.Parse(time.TimeOnly, s); err2 != nil {
				return "String is not a RFC3339 time."
			}
		}
	case "ipv4":
		if ip := net.ParseIP(s); ip == nil || ip.To4() == nil {
			return "String does not match IPv4 format."
		}
	case "ipv6":
		if ip := net.ParseIP(s); ip == nil || ip.To4() != nil {
			return "String does not match IPv6 format."
		}
	case "hostname":
		if len(s) > 253 || !hostnameRe.MatchString(s) {
			return fmt.Sprintf("String is not a hostname: %q.", s)
		}
	}
	return ""
}
