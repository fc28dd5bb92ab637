package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naheedmk/java-glr-parser/ebnf"
	"github.com/naheedmk/java-glr-parser/glr"
)

// grammarFlags select the grammar a command parses with.
type grammarFlags struct {
	file   string
	start  string
	ignore []string
	trace  bool
}

func (f *grammarFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "grammar", "g", "", "EBNF grammar file")
	cmd.Flags().StringVarP(&f.start, "start", "s", "", "start production")
	cmd.Flags().StringSliceVarP(&f.ignore, "ignore", "i", nil, "lexical productions skipped between tokens, in order")
	cmd.Flags().BoolVar(&f.trace, "trace", false, "log every parse step at debug level")
	_ = cmd.MarkFlagRequired("grammar")
	_ = cmd.MarkFlagRequired("start")
}

func (f *grammarFlags) parser() (*glr.Parser, error) {
	g, err := ebnf.Load(f.file, f.start, f.ignore...)
	if err != nil {
		return nil, fmt.Errorf("load grammar %s: %w", f.file, err)
	}
	var opts []glr.Option
	if f.trace {
		opts = append(opts, glr.WithTrace())
	}
	return glr.NewParser(g, opts...), nil
}
