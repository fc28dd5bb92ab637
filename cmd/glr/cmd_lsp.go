package main

import (
	"github.com/spf13/cobra"

	"github.com/naheedmk/java-glr-parser/lsp"
)

func newLSPCmd() *cobra.Command {
	var flags grammarFlags

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start a Language Server Protocol server reporting syntax errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.parser()
			if err != nil {
				return err
			}
			return lsp.NewServer(p, version).RunStdio()
		},
	}

	flags.register(cmd)

	return cmd
}
