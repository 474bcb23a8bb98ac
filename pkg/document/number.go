package document

import (
	"math"
	"strconv"
	"strings"
)

// Number parses a number node, accepting the YAML 1.1 and 1.2 integer
// forms (0x, 0o, 0b, signs) and the special floats.
func (n *Node) Number() (float64, bool) {
	if n == nil || n.Kind != KindNumber {
		return 0, false
	}
	return ParseNumber(n.Value)
}

// ParseNumber parses a YAML numeric literal.
func ParseNumber(val string) (float64, bool) {
	lower := strings.ToLower(val)

	switch lower {
	case ".inf", "+.inf":
		return math.Inf(1), true
	case "-.inf":
		return math.Inf(-1), true
	case ".nan":
		return math.NaN(), true
	}

	if f, err := strconv.ParseFloat(strings.ReplaceAll(val, "_", ""), 64); err == nil {
		return f, true
	}

	s := val
	sign := 1.0
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	}

	if strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0O") {
		if i, err := strconv.ParseInt(s[2:], 8, 64); err == nil {
			return sign * float64(i), true
		}
	}
	if strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B") {
		if i, err := strconv.ParseInt(s[2:], 2, 64); err == nil {
			return sign * float64(i), true
		}
	}
	// hex, or YAML 1.1 octal with a leading zero
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return sign * float64(i), true
	}
	return 0, false
}

// IsIntegral reports whether the number node holds a whole value.
func (n *Node) IsIntegral() bool {
	if n.Integer {
		return true
	}
	f, ok := n.Number()
	return ok && !math.IsInf(f, 0) && f == math.Trunc(f)
}
