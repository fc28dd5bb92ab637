package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naheedmk/java-glr-parser/ebnf"
)

func newCheckCmd() *cobra.Command {
	var startProduction string
	var ignore []string

	cmd := &cobra.Command{
		Use:           "check <file>",
		Short:         "Parse and verify an EBNF grammar file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]

			if err := ebnf.Check(filename, startProduction, ignore...); err != nil {
				printErrors(cmd, err)
				return err
			}
			if startProduction == "" {
				return nil
			}

			if _, err := ebnf.Load(filename, startProduction, ignore...); err != nil {
				printErrors(cmd, err)
				return err
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "", "start production for verification (if empty, only checks syntax)")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "ignorable lexical productions, verified as additional roots")

	return cmd
}

func printErrors(cmd *cobra.Command, err error) {
	for _, e := range ebnf.Errors(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), e)
	}
}
