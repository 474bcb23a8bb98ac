package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yakwilikk/go-yamlls"
	"github.com/yakwilikk/go-yamlls/pkg/document"
)

func newCompleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "complete FILE LINE:COL",
		Short: "Print the completion list at a position as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.query(cmd, args, func(svc *yamlls.Service, docURI string, pos document.Position) (any, error) {
				return svc.Complete(cmd.Context(), docURI, pos)
			})
		},
	}
}

func newHoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hover FILE LINE:COL",
		Short: "Print the hover text at a position as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.query(cmd, args, func(svc *yamlls.Service, docURI string, pos document.Position) (any, error) {
				return svc.Hover(cmd.Context(), docURI, pos)
			})
		},
	}
}

// query opens FILE, runs fn at LINE:COL and prints its result.
func (a *app) query(cmd *cobra.Command, args []string,
	fn func(svc *yamlls.Service, docURI string, pos document.Position) (any, error)) error {
	pos, err := parsePosition(args[1])
	if err != nil {
		return err
	}
	svc, _, _, err := a.setup(cmd.Context())
	if err != nil {
		return err
	}
	docURI, text, err := readDocument(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	svc.Open(docURI, 0, text)

	result, err := fn(svc, docURI, pos)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// parsePosition reads a 1-based "line:col" into a zero-based position.
// The column counts UTF-16 units, as editors do.
func parsePosition(s string) (document.Position, error) {
	lineStr, colStr, ok := strings.Cut(s, ":")
	if !ok {
		return document.Position{}, fmt.Errorf("position %q: want LINE:COL", s)
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return document.Position{}, fmt.Errorf("position %q: bad line", s)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil || col < 1 {
		return document.Position{}, fmt.Errorf("position %q: bad column", s)
	}
	return document.Position{Line: line - 1, Character: col - 1}, nil
}
