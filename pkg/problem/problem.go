// Package problem defines validation findings and the interfaces keyword
// validators implement to report them.
package problem

import (
	"fmt"

	"github.com/yakwilikk/go-yamlls/pkg/document"
)

// Level defines the severity of a problem.
type Level int

const (
	// LevelWarning indicates a non-critical issue (e.g., deprecated property).
	LevelWarning Level = iota
	// LevelError indicates a validation failure.
	LevelError
)

func (l Level) String() string {
	if l == LevelWarning {
		return "WARNING"
	}
	return "ERROR"
}

// Problem represents a single validation issue.
type Problem struct {
	Level    Level
	Path     string // e.g. "spec.containers[0].image"
	Offset   int    // byte offset of the offending node
	Length   int
	Message  string
	Got      string // actual value or type description
	Expected string // expected value or type description
	Source   string // URL of the schema that reported it
}

func (p Problem) Error() string {
	var details string
	if p.Expected != "" && p.Got != "" {
		details = fmt.Sprintf(" (expected %s, got %s)", p.Expected, p.Got)
	} else if p.Got != "" {
		details = fmt.Sprintf(" (got %s)", p.Got)
	}
	return fmt.Sprintf("[%s] %s%s (path: %s)", p.Level, p.Message, details, p.Path)
}

// At returns a copy of p spanning node n.
func (p Problem) At(n *document.Node) Problem {
	if n != nil {
		p.Offset, p.Length = n.Offset, n.Length
	}
	return p
}

// Collector accumulates problems, errors and warnings apart.
type Collector struct {
	errors   []Problem
	warnings []Problem
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records a problem.
func (c *Collector) Add(p Problem) {
	if p.Level == LevelError {
		c.errors = append(c.errors, p)
	} else {
		c.warnings = append(c.warnings, p)
	}
}

// Merge records every problem of other.
func (c *Collector) Merge(other *Collector) {
	if other == nil {
		return
	}
	c.errors = append(c.errors, other.errors...)
	c.warnings = append(c.warnings, other.warnings...)
}

// HasErrors returns true if there are any errors (not warnings).
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all errors.
func (c *Collector) Errors() []Problem {
	return c.errors
}

// Warnings returns all warnings.
func (c *Collector) Warnings() []Problem {
	return c.warnings
}

// Len counts errors and warnings.
func (c *Collector) Len() int {
	return len(c.errors) + len(c.warnings)
}

// All returns all errors followed by all warnings.
func (c *Collector) All() []Problem {
	result := make([]Problem, 0, len(c.errors)+len(c.warnings))
	result = append(result, c.errors...)
	result = append(result, c.warnings...)
	return result
}

// ValueValidator checks the value of a node.
type ValueValidator interface {
	Validate(doc *document.Document, id document.NodeID, path string, c *Collector)
}

// KeyValidator checks a mapping key name.
type KeyValidator interface {
	ValidateKey(key string, keyNode *document.Node, path string, c *Collector)
}
