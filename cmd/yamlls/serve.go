package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.lsp.dev/jsonrpc2"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the language server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}

// stdio joins the process streams into the connection jsonrpc2 expects.
type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error { return nil }

func (a *app) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc, _, logger, err := a.setup(ctx)
	if err != nil {
		return err
	}

	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(stdio{Reader: in, Writer: out}))
	srv := newServer(svc, logger, conn)
	conn.Go(ctx, srv.handler())
	logger.Info("language server started", "version", version)

	select {
	case <-conn.Done():
	case <-srv.exited:
		_ = conn.Close()
	}
	if err := conn.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
