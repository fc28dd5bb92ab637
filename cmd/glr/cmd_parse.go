package main

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/naheedmk/java-glr-parser/format"
	"github.com/naheedmk/java-glr-parser/glr"
	"github.com/naheedmk/java-glr-parser/parsetree"
	"github.com/naheedmk/java-glr-parser/reader"
)

const stdinName = "<stdin>"

// result holds the rendered output of one input file.
type result struct {
	out    bytes.Buffer
	errOut bytes.Buffer
	failed bool
}

func newParseCmd() *cobra.Command {
	var flags grammarFlags
	var outputFormat string

	cmd := &cobra.Command{
		Use:           "parse [file...]",
		Short:         "Parse files (or standard input) and print their parse trees",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := format.NewEncoder(outputFormat, &bytes.Buffer{}); err != nil {
				return err
			}
			p, err := flags.parser()
			if err != nil {
				printErrors(cmd, err)
				return err
			}

			if len(args) == 0 {
				args = []string{"-"}
			}
			results := make([]*result, len(args))

			var g errgroup.Group
			g.SetLimit(runtime.GOMAXPROCS(0))
			for i, filename := range args {
				results[i] = &result{}
				g.Go(func() error {
					rd, err := openInput(cmd, filename)
					if err != nil {
						return err
					}
					return render(p, rd, outputFormat, results[i])
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				cmd.OutOrStdout().Write(r.out.Bytes())
				cmd.ErrOrStderr().Write(r.errOut.Bytes())
				if r.failed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d inputs failed to parse", failed, len(args))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "tree", fmt.Sprintf("output format %v", format.Names))

	return cmd
}

func openInput(cmd *cobra.Command, filename string) (*reader.Reader, error) {
	if filename == "-" {
		return reader.New(cmd.InOrStdin(), stdinName, -1)
	}
	return reader.Open(filename)
}

// render parses one input into r. Syntax errors are recorded in r; any
// other error aborts the command.
func render(p *glr.Parser, rd *reader.Reader, outputFormat string, r *result) error {
	enc, err := format.NewEncoder(outputFormat, &r.out)
	if err != nil {
		return err
	}

	node, err := p.Parse(rd)
	var syntaxErr *glr.SyntaxError
	if errors.As(err, &syntaxErr) {
		r.failed = true
		if errEnc, ok := enc.(format.ErrorEncoder); ok {
			return errEnc.EncodeError(syntaxErr)
		}
		fmt.Fprintln(&r.errOut, syntaxErr)
		return nil
	}
	if err != nil {
		return err
	}
	return encode(enc, node)
}

func encode(enc format.Encoder, node parsetree.Node) error {
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
