package glr

import (
	"errors"
	"fmt"
	"testing"
	"testing/iotest"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/naheedmk/java-glr-parser/grammar"
	"github.com/naheedmk/java-glr-parser/parsetree"
	"github.com/naheedmk/java-glr-parser/reader"
	"github.com/naheedmk/java-glr-parser/source"
)

const testFile = "<string>"

var (
	NUM        = grammar.Re("NUM", `[0-9]+`)
	ID         = grammar.Re("ID", `[A-Za-z]\w*`)
	PLUS       = grammar.Kw("+")
	TIMES      = grammar.Kw("*")
	COMMA      = grammar.Kw(",")
	WS         = grammar.Re("WS", `\s+`)
	SL_COMMENT = grammar.Re("SL_COMMENT", `\s*//[^\n]*\s*`)
	ML_COMMENT = grammar.Re("ML_COMMENT", `\s*/\*.*?\*/\s*`)

	ignore = []grammar.Terminal{WS, SL_COMMENT, ML_COMMENT}
)

func parse(t *testing.T, src string, root grammar.Symbol, extra ...grammar.Symbol) parsetree.Node {
	t.Helper()
	g, err := grammar.New(root, ignore, extra...)
	require.NoError(t, err)
	node, err := Parse(g, src, testFile)
	require.NoError(t, err)
	require.NotNil(t, node)
	return node
}

func parseErr(t *testing.T, src string, root grammar.Symbol) *SyntaxError {
	t.Helper()
	_, err := ParseSymbol(root, ignore, src, testFile)
	require.Error(t, err)
	var syntaxErr *SyntaxError
	require.True(t, errors.As(err, &syntaxErr), "got %T: %v", err, err)
	return syntaxErr
}

// tok builds the token expected at start, computing line and column the way
// the reader does.
func tok(src string, sym grammar.Symbol, start int, text string) *parsetree.Token {
	rd := reader.NewString(src, testFile)
	if err := rd.Seek(start); err != nil {
		panic(err)
	}
	from := rd.Position()
	if err := rd.Seek(start + utf8.RuneCountInString(text)); err != nil {
		panic(err)
	}
	return parsetree.NewToken(source.NewRange(testFile, from, rd.Position()), sym, text, "")
}

func kw(src string, k *grammar.KeywordTerminal, start int) *parsetree.Token {
	return tok(src, k, start, k.Text())
}

func assertTree(t *testing.T, want, got parsetree.Node) {
	t.Helper()
	require.NotNil(t, got)
	if !want.Equal(got) {
		assert.Equal(t, parsetree.StringWithPositions(want), parsetree.StringWithPositions(got))
		t.Fatalf("trees differ:\nwant %s\n got %s", want, got)
	}
}

func TestParseSingleNumber(t *testing.T) {
	node := parse(t, "5", NUM)
	token, ok := node.(*parsetree.Token)
	require.True(t, ok)
	assert.Equal(t, "5", token.Text())
	assert.Same(t, NUM, token.Symbol())
}

func TestParseAddition(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		offsets [3]int
		ignored [3]string
	}{
		{"plain", "12+34", [3]int{0, 2, 3}, [3]string{"", "", ""}},
		{"whitespace", " 12 + 34 ", [3]int{1, 4, 6}, [3]string{" ", " ", " "}},
		{"inline comments", "/*pre*/12/*mid*/+/*mid2*/34/*after*/", [3]int{7, 16, 25}, [3]string{"/*pre*/", "/*mid*/", "/*mid2*/"}},
		{"line comments", "//pre\n 12 //mid\n + //mid2\n 34 // after", [3]int{7, 17, 27}, [3]string{"//pre\n ", " //mid\n ", " //mid2\n "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := grammar.Nt("Sum", NUM, PLUS, NUM)
			node := parse(t, tt.src, sum)

			want := parsetree.NewElement(sum,
				tok(tt.src, NUM, tt.offsets[0], "12"),
				kw(tt.src, PLUS, tt.offsets[1]),
				tok(tt.src, NUM, tt.offsets[2], "34"),
			)
			assertTree(t, want, node)

			var ignored [3]string
			for i, c := range node.Children() {
				ignored[i] = c.(*parsetree.Token).IgnoredPrefix()
			}
			assert.Equal(t, tt.ignored, ignored)
		})
	}
}

// arithmetic builds Expr with sum, product and literal rules. leftAssoc
// selects which operand of the binary rules admits the rule's own priority.
func arithmetic(leftAssoc bool) *grammar.NonTerminal {
	sum := grammar.NewPriority("sum")
	product := grammar.NewPriority("product", sum)
	literal := grammar.NewPriority("literal", product, sum)
	expr := grammar.Ref("Expr")
	operands := func(p *grammar.Priority) (*grammar.SymbolRef, *grammar.SymbolRef) {
		if leftAssoc {
			return expr.Ge(p), expr.Gt(p)
		}
		return expr.Gt(p), expr.Ge(p)
	}
	sl, sr := operands(sum)
	pl, pr := operands(product)
	return grammar.NewNonTerminal("Expr",
		grammar.NewRule(sum, sl, PLUS, sr),
		grammar.NewRule(product, pl, TIMES, pr),
		grammar.NewRule(literal, NUM),
	)
}

type exprBuilder struct {
	src  string
	expr *grammar.NonTerminal
}

func (b exprBuilder) num(start int, text string) parsetree.Node {
	return parsetree.NewElement(b.expr, tok(b.src, NUM, start, text))
}

func (b exprBuilder) op(lhs parsetree.Node, k *grammar.KeywordTerminal, at int, rhs parsetree.Node) parsetree.Node {
	return parsetree.NewElement(b.expr, lhs, kw(b.src, k, at), rhs)
}

func TestPrecedence(t *testing.T) {
	t.Run("products under a sum", func(t *testing.T) {
		src := "12*34+56*78"
		expr := arithmetic(false)
		b := exprBuilder{src, expr}
		want := b.op(
			b.op(b.num(0, "12"), TIMES, 2, b.num(3, "34")),
			PLUS, 5,
			b.op(b.num(6, "56"), TIMES, 8, b.num(9, "78")),
		)
		assertTree(t, want, parse(t, src, expr))
	})

	t.Run("product inside right-nested sums", func(t *testing.T) {
		src := "12+34*56+78"
		expr := arithmetic(false)
		b := exprBuilder{src, expr}
		want := b.op(
			b.num(0, "12"),
			PLUS, 2,
			b.op(b.op(b.num(3, "34"), TIMES, 5, b.num(6, "56")), PLUS, 8, b.num(9, "78")),
		)
		assertTree(t, want, parse(t, src, expr))
	})

	t.Run("product inside left-nested sums", func(t *testing.T) {
		src := "12+34*56+78"
		expr := arithmetic(true)
		b := exprBuilder{src, expr}
		want := b.op(
			b.op(b.num(0, "12"), PLUS, 2, b.op(b.num(3, "34"), TIMES, 5, b.num(6, "56"))),
			PLUS, 8,
			b.num(9, "78"),
		)
		assertTree(t, want, parse(t, src, expr))
	})
}

func TestAssociativity(t *testing.T) {
	src := "12+34+56"

	t.Run("gt left ge right nests to the right", func(t *testing.T) {
		expr := arithmetic(false)
		b := exprBuilder{src, expr}
		want := b.op(b.num(0, "12"), PLUS, 2, b.op(b.num(3, "34"), PLUS, 5, b.num(6, "56")))
		assertTree(t, want, parse(t, src, expr))
	})

	t.Run("ge left gt right nests to the left", func(t *testing.T) {
		expr := arithmetic(true)
		b := exprBuilder{src, expr}
		want := b.op(b.op(b.num(0, "12"), PLUS, 2, b.num(3, "34")), PLUS, 5, b.num(6, "56"))
		assertTree(t, want, parse(t, src, expr))
	})
}

func TestIgnoredPrefixAroundOperators(t *testing.T) {
	src := "/*a*/12/*b*/+/*c*/34"
	expr := arithmetic(true)
	node := parse(t, src, expr)

	var texts, prefixes []string
	for _, tk := range parsetree.Tokens(node) {
		texts = append(texts, tk.Text())
		prefixes = append(prefixes, tk.IgnoredPrefix())
	}
	assert.Equal(t, []string{"12", "+", "34"}, texts)
	assert.Equal(t, []string{"/*a*/", "/*b*/", "/*c*/"}, prefixes)
	assert.Equal(t, 5, node.Range().Start.Offset)
	assert.Equal(t, len(src), node.Range().End.Offset)
}

func TestLeftRecursion(t *testing.T) {
	t.Run("unprioritized list", func(t *testing.T) {
		list := grammar.NewNonTerminal("List")
		list.Define(
			grammar.NewRule(nil, grammar.Ref("List"), COMMA, ID),
			grammar.NewRule(nil, ID),
		)
		node := parse(t, "a, b, c", list)
		assert.Equal(t, `List(List(List("a") "," "b") "," "c")`, node.String())
	})

	t.Run("mutual", func(t *testing.T) {
		a := grammar.NewNonTerminal("A")
		b := grammar.Nt("B", grammar.Ref("A"), grammar.Kw("b"))
		a.Define(
			grammar.NewRule(nil, b, grammar.Kw("a")),
			grammar.NewRule(nil, grammar.Kw("c")),
		)
		node := parse(t, "cbaba", a)
		assert.Equal(t, `A(B(A(B(A("c") "b") "a") "b") "a")`, node.String())
	})
}

func TestLongestMatchAndTieBreak(t *testing.T) {
	dot := grammar.Kw(".")

	t.Run("longest rule wins", func(t *testing.T) {
		number := grammar.NewNonTerminal("Number",
			grammar.NewRule(nil, NUM),
			grammar.NewRule(nil, NUM, dot, NUM),
		)
		node := parse(t, "1.5", number)
		assert.Len(t, node.Children(), 3)
	})

	t.Run("earlier rule wins a tie", func(t *testing.T) {
		ifKw := grammar.Kw("if")
		idFirst := grammar.NewNonTerminal("Word", grammar.NewRule(nil, ID), grammar.NewRule(nil, ifKw))
		node := parse(t, "if", idFirst)
		assert.Same(t, ID, node.Children()[0].Symbol())

		kwFirst := grammar.NewNonTerminal("Word", grammar.NewRule(nil, ifKw), grammar.NewRule(nil, ID))
		node = parse(t, "if", kwFirst)
		assert.Same(t, ifKw, node.Children()[0].Symbol())
	})
}

func TestOptionalSuffix(t *testing.T) {
	suffix := grammar.Opt(ID)
	pair := grammar.Nt("maybe_pair", ID, suffix)

	node := parse(t, "a b", pair)
	require.Len(t, node.Children(), 2)
	assert.Equal(t, "a", node.Children()[0].(*parsetree.Token).Text())
	opt := node.Children()[1]
	require.Len(t, opt.Children(), 1)
	assert.Equal(t, "b", opt.Children()[0].(*parsetree.Token).Text())

	node = parse(t, "c", pair)
	want := parsetree.NewElement(pair,
		tok("c", ID, 0, "c"),
		parsetree.NewElement(suffix, tok("c", grammar.Nil, 1, "")),
	)
	assertTree(t, want, node)
}

func TestOptionalCommaSuffix(t *testing.T) {
	suffix := grammar.Opt(COMMA, ID)
	pair := grammar.Nt("maybe_pair", ID, suffix)

	src := "a,b"
	want := parsetree.NewElement(pair,
		tok(src, ID, 0, "a"),
		parsetree.NewElement(suffix, parsetree.NewElement(suffix.Item(), kw(src, COMMA, 1), tok(src, ID, 2, "b"))),
	)
	assertTree(t, want, parse(t, src, pair))

	want = parsetree.NewElement(pair,
		tok("c", ID, 0, "c"),
		parsetree.NewElement(suffix, tok("c", grammar.Nil, 1, "")),
	)
	assertTree(t, want, parse(t, "c", pair))
}

func TestLists(t *testing.T) {
	t.Run("one or more", func(t *testing.T) {
		src := "a b c d e"
		list := grammar.Plus("id_list", ID)
		want := parsetree.NewElement(list,
			tok(src, ID, 0, "a"),
			tok(src, ID, 2, "b"),
			tok(src, ID, 4, "c"),
			tok(src, ID, 6, "d"),
			tok(src, ID, 8, "e"),
		)
		assertTree(t, want, parse(t, src, list))
	})

	t.Run("separated", func(t *testing.T) {
		src := "a,b,c,d,e"
		list := grammar.List("id_list", ID, COMMA)
		node := parse(t, src, list)
		require.Len(t, node.Children(), 9)
		want := parsetree.NewElement(list,
			tok(src, ID, 0, "a"), kw(src, COMMA, 1),
			tok(src, ID, 2, "b"), kw(src, COMMA, 3),
			tok(src, ID, 4, "c"), kw(src, COMMA, 5),
			tok(src, ID, 6, "d"), kw(src, COMMA, 7),
			tok(src, ID, 8, "e"),
		)
		assertTree(t, want, node)
	})

	t.Run("trailing separator is not consumed", func(t *testing.T) {
		err := parseErr(t, "a,b,", grammar.List("id_list", ID, COMMA))
		assert.Equal(t, 4, err.Range.Start.Offset)
		assert.Equal(t, []string{"ID"}, err.Expected)
	})

	t.Run("empty zero or more", func(t *testing.T) {
		list := grammar.Star("ids", ID)
		call := grammar.Nt("Call", ID, grammar.Kw("("), list, grammar.Kw(")"))
		node := parse(t, "f( )", call)
		ids := node.Children()[2]
		assert.Empty(t, ids.Children())
		assert.Equal(t, 2, ids.Range().Start.Offset)
		assert.True(t, ids.Range().IsEmpty())
	})

	t.Run("one or more needs an item", func(t *testing.T) {
		err := parseErr(t, "", grammar.Plus("ids", ID))
		assert.Equal(t, "<string>: 1:1: unexpected end of input, expected ID", err.Error())
	})
}

func TestZeroLengthTerminalMatchIsNoMatch(t *testing.T) {
	maybeA := grammar.Opt(grammar.Re("AS", `a*`))
	root := grammar.Nt("X", maybeA, NUM)
	node := parse(t, "5", root)
	marker, ok := node.Children()[0].Children()[0].(*parsetree.Token)
	require.True(t, ok)
	assert.True(t, marker.IsMarker())

	for _, tk := range parsetree.Tokens(node) {
		if !tk.IsMarker() {
			assert.NotEmpty(t, tk.Text())
		}
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		root     grammar.Symbol
		offset   int
		expected []string
		message  string
	}{
		{
			name:    "trailing input",
			src:     "12extra",
			root:    NUM,
			offset:  2,
			message: "<string>: 1:3: unexpected 'e'",
		},
		{
			name:     "missing operand",
			src:      "12+",
			root:     grammar.Nt("Sum", NUM, PLUS, NUM),
			offset:   3,
			expected: []string{"NUM"},
			message:  "<string>: 1:4: unexpected end of input, expected NUM",
		},
		{
			name:     "furthest failure wins",
			src:      "12+34*",
			root:     arithmetic(true),
			offset:   6,
			expected: []string{"NUM"},
		},
		{
			name:     "alternatives at the same offset",
			src:      "12 x",
			root:     arithmetic(true),
			offset:   3,
			expected: []string{`"+"`, `"*"`},
			message:  `<string>: 1:4: unexpected 'x', expected "+" or "*"`,
		},
		{
			name:   "second line",
			src:    "12\n+\n?",
			root:   grammar.Nt("Sum", NUM, PLUS, NUM),
			offset: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseErr(t, tt.src, tt.root)
			assert.Equal(t, tt.offset, err.Range.Start.Offset)
			assert.True(t, err.Range.IsEmpty())
			if tt.expected != nil {
				assert.Equal(t, tt.expected, err.Expected)
			}
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
			}
		})
	}

	t.Run("line and column", func(t *testing.T) {
		err := parseErr(t, "12\n+\n?", grammar.Nt("Sum", NUM, PLUS, NUM))
		assert.Equal(t, 3, err.Range.Start.Line)
		assert.Equal(t, 1, err.Range.Start.Column)
	})
}

func TestIOErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	rd, err := reader.New(iotest.ErrReader(boom), "broken", 10)
	require.NoError(t, err)

	_, err = NewParser(grammar.MustNew(NUM, ignore)).Parse(rd)
	var ioErr *reader.IOError
	require.True(t, errors.As(err, &ioErr), "got %T: %v", err, err)
	assert.ErrorIs(t, err, boom)
	var syntaxErr *SyntaxError
	assert.False(t, errors.As(err, &syntaxErr))
}

func TestConstructionErrorsReturned(t *testing.T) {
	_, err := ParseSymbol(grammar.Nt("A", grammar.Ref("Missing")), nil, "x", testFile)
	assert.ErrorIs(t, err, grammar.ErrUndefinedSymbol)
}

func TestSharedGrammarConcurrentParses(t *testing.T) {
	p := NewParser(grammar.MustNew(arithmetic(true), ignore))
	inputs := map[string]string{
		"1+2+3":     `Expr(Expr(Expr("1") "+" Expr("2")) "+" Expr("3"))`,
		"1*2+3":     `Expr(Expr(Expr("1") "*" Expr("2")) "+" Expr("3"))`,
		"1 + 2 * 3": `Expr(Expr("1") "+" Expr(Expr("2") "*" Expr("3")))`,
		"7":         `Expr("7")`,
	}

	var eg errgroup.Group
	for i := 0; i < 8; i++ {
		for src, want := range inputs {
			eg.Go(func() error {
				node, err := p.ParseString(src, fmt.Sprintf("worker-%d", i))
				if err != nil {
					return err
				}
				if got := node.String(); got != want {
					return fmt.Errorf("%q: got %s, want %s", src, got, want)
				}
				return nil
			})
		}
	}
	require.NoError(t, eg.Wait())
}

func TestTraceDoesNotChangeResult(t *testing.T) {
	g := grammar.MustNew(arithmetic(false), ignore)
	plain, err := NewParser(g).ParseString("1+2*3", testFile)
	require.NoError(t, err)
	traced, err := NewParser(g, WithTrace()).ParseString("1+2*3", testFile)
	require.NoError(t, err)
	assert.True(t, plain.Equal(traced))
}
