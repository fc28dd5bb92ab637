package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/naheedmk/java-glr-parser/format"
	"github.com/naheedmk/java-glr-parser/glr"
)

func newReplCmd() *cobra.Command {
	var flags grammarFlags
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Parse lines interactively",
		Long: `Parse each entered line and print its parse tree. Input that ends
before the start production is complete continues on the next line; an
empty line reports the pending error.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.parser()
			if err != nil {
				printErrors(cmd, err)
				return err
			}
			enc, err := format.NewEncoder(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return runREPL(cmd, p, enc)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "tree", fmt.Sprintf("output format %v", format.Names))

	return cmd
}

func runREPL(cmd *cobra.Command, p *glr.Parser, enc format.Encoder) error {
	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)

	historyPath := replHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(historyPath); err == nil {
				state.WriteHistory(f)
				f.Close()
			}
		}()
	}

	stderr := cmd.ErrOrStderr()
	var lines []string

	for {
		prompt := "glr> "
		if len(lines) > 0 {
			prompt = ".... "
		}
		input, err := state.Prompt(prompt)
		if err != nil {
			switch {
			case errors.Is(err, liner.ErrPromptAborted):
				fmt.Fprintln(stderr)
				lines = lines[:0]
				continue
			case errors.Is(err, io.EOF):
				fmt.Fprintln(stderr)
				return nil
			default:
				return fmt.Errorf("read input: %w", err)
			}
		}

		force := input == "" && len(lines) > 0
		if !force {
			lines = append(lines, input)
		}
		src := strings.Join(lines, "\n")

		node, err := p.ParseString(src, "<repl>")
		var syntaxErr *glr.SyntaxError
		if errors.As(err, &syntaxErr) && !force && incomplete(syntaxErr, src) {
			continue
		}

		lines = lines[:0]
		if trimmed := strings.TrimSpace(src); trimmed != "" {
			state.AppendHistory(trimmed)
		}
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			continue
		}
		if err := enc.Encode(node); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
	}
}

// incomplete reports whether err was raised because src ended too early.
func incomplete(err *glr.SyntaxError, src string) bool {
	return strings.TrimSpace(src) != "" && err.Range.Start.Offset >= utf8.RuneCountInString(src)
}

func replHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".glr_history")
}
