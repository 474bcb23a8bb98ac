package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.lsp.dev/uri"

	"github.com/yakwilikk/go-yamlls"
)

// errValidationFailed makes the process exit with status 1.
var errValidationFailed = errors.New("validation failed")

type validateOptions struct {
	sort    bool
	noColor bool
}

func newValidateCmd(a *app) *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Validate YAML files against their schemas",
		Long: `Validate YAML files against the schemas associated with them by the
config file, a modeline or --schema. With no files, or "-", stdin is read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validate(cmd, args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.sort, "sort", true, "sort messages by position")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	return cmd
}

func (a *app) validate(cmd *cobra.Command, args []string, opts *validateOptions) error {
	ctx := cmd.Context()
	svc, _, _, err := a.setup(ctx)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}

	out := cmd.OutOrStdout()
	p := newPrinter(out, opts.noColor)
	failed := false
	for _, path := range args {
		docURI, text, err := readDocument(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		svc.Open(docURI, 0, text)
		diags, err := svc.Validate(ctx, docURI)
		if err != nil {
			return err
		}
		f, err := svc.File(docURI)
		if err != nil {
			return err
		}
		res := &yamlls.ValidationResult{Diagnostics: diags, SourceLines: yamlls.SourceLines(f.Lines)}
		p.report(displayName(path), res, opts.sort)
		failed = failed || res.HasErrors()
		svc.Close(docURI)
	}
	if failed {
		return errValidationFailed
	}
	return nil
}

// readDocument reads path, or stdin for "-", and names it with a file URI
// so that fileMatch globs and relative modelines resolve.
func readDocument(path string, stdin io.Reader) (string, string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read input: %w", err)
		}
		wd, _ := os.Getwd()
		return string(uri.File(filepath.Join(wd, "stdin.yaml"))), string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read input: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("read input: %w", err)
	}
	return string(uri.File(abs)), string(data), nil
}

func displayName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}

type printer struct {
	out     io.Writer
	errC    *color.Color
	warnC   *color.Color
	okC     *color.Color
	headerC *color.Color
}

// newPrinter colors output only when out is a terminal.
func newPrinter(out io.Writer, noColor bool) *printer {
	p := &printer{
		out:     out,
		errC:    color.New(color.FgRed, color.Bold),
		warnC:   color.New(color.FgYellow),
		okC:     color.New(color.FgGreen),
		headerC: color.New(color.Bold),
	}
	enabled := !noColor && isTerminal(out)
	for _, c := range []*color.Color{p.errC, p.warnC, p.okC, p.headerC} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) report(name string, res *yamlls.ValidationResult, sortByPos bool) {
	if len(res.Diagnostics) == 0 {
		fmt.Fprintf(p.out, "%s: %s\n", name, p.okC.Sprint("valid"))
		return
	}
	fmt.Fprintf(p.out, "%s: %d error(s), %d warning(s)\n",
		p.headerC.Sprint(name), len(res.Errors()), len(res.Warnings()))

	sc := bufio.NewScanner(strings.NewReader(res.FormatAll(sortByPos)))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "[ERROR]"):
			line = p.errC.Sprint(line)
		case strings.HasPrefix(line, "[WARNING]"):
			line = p.warnC.Sprint(line)
		case strings.HasPrefix(line, "       |"):
			line = p.errC.Sprint(line)
		}
		fmt.Fprintln(p.out, line)
	}
}
