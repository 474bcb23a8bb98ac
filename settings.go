package yamlls

import (
	"fmt"
	"strings"
)

// SchemaSetting associates a schema with the documents matching FileMatch.
// Inline schema text is registered under URI instead of being fetched.
type SchemaSetting struct {
	URI       string   `mapstructure:"uri" json:"uri"`
	Name      string   `mapstructure:"name" json:"name,omitempty"`
	FileMatch []string `mapstructure:"fileMatch" json:"fileMatch,omitempty"`
	Priority  int      `mapstructure:"priority" json:"priority,omitempty"`
	Inline    string   `mapstructure:"inline" json:"inline,omitempty"`
}

// Settings configure a Service. The zero value turns every feature off;
// start from DefaultSettings.
type Settings struct {
	Validate    bool   `mapstructure:"validate" json:"validate"`
	Hover       bool   `mapstructure:"hover" json:"hover"`
	Completion  bool   `mapstructure:"completion" json:"completion"`
	Indentation string `mapstructure:"indentation" json:"indentation"`

	Schemas []SchemaSetting `mapstructure:"schemas" json:"schemas,omitempty"`
	// Kubernetes lists fileMatch globs that get the Kubernetes schema.
	Kubernetes []string `mapstructure:"kubernetes" json:"kubernetes,omitempty"`

	WorkspaceRoot string `mapstructure:"workspaceRoot" json:"workspaceRoot,omitempty"`
}

// DefaultSettings enables every feature with two-space indentation.
func DefaultSettings() Settings {
	return Settings{
		Validate:    true,
		Hover:       true,
		Completion:  true,
		Indentation: defaultIndentation,
	}
}

// Check reports settings the service cannot apply.
func (s Settings) Check() error {
	if strings.Trim(s.Indentation, " \t") != "" {
		return fmt.Errorf("indentation %q: only spaces and tabs are allowed", s.Indentation)
	}
	for i, sc := range s.Schemas {
		if strings.TrimSpace(sc.URI) == "" {
			return fmt.Errorf("schemas[%d]: uri is required", i)
		}
		if sc.Priority < 0 {
			return fmt.Errorf("schemas[%d]: negative priority %d", i, sc.Priority)
		}
	}
	return nil
}

func (s Settings) indentation() string {
	if s.Indentation == "" {
		return defaultIndentation
	}
	return s.Indentation
}
