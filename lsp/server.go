// Package lsp serves syntax diagnostics for one grammar over the Language
// Server Protocol.
package lsp

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/naheedmk/java-glr-parser/glr"
	"github.com/naheedmk/java-glr-parser/source"
)

const (
	lsName             = "glr"
	publishDiagnostics = "textDocument/publishDiagnostics"
)

type Server struct {
	parser  *glr.Parser
	handler protocol.Handler
	server  *server.Server
	version string
	log     commonlog.Logger

	mu   sync.Mutex
	docs map[protocol.DocumentUri]string
}

func NewServer(parser *glr.Parser, version string) *Server {
	ls := &Server{
		parser:  parser,
		version: version,
		log:     commonlog.GetLogger("glr.lsp"),
		docs:    make(map[protocol.DocumentUri]string),
	}

	ls.handler = protocol.Handler{
		Initialize:            ls.initialize,
		Initialized:           ls.initialized,
		Shutdown:              ls.shutdown,
		SetTrace:              ls.setTrace,
		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidClose:  ls.textDocumentDidClose,
		TextDocumentDidSave:   ls.textDocumentDidSave,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return ls.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			return ls.update(ctx, params.TextDocument.URI, textChange.Text)
		}
	}
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.mu.Lock()
	delete(ls.docs, params.TextDocument.URI)
	ls.mu.Unlock()
	ctx.Notify(publishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		return ls.update(ctx, params.TextDocument.URI, *params.Text)
	}
	ls.mu.Lock()
	text, ok := ls.docs[params.TextDocument.URI]
	ls.mu.Unlock()
	if !ok {
		return nil
	}
	return ls.update(ctx, params.TextDocument.URI, text)
}

// update stores the latest text of a document and publishes its
// diagnostics.
func (ls *Server) update(ctx *glsp.Context, uri protocol.DocumentUri, text string) error {
	ls.mu.Lock()
	ls.docs[uri] = text
	ls.mu.Unlock()

	diagnostics, err := Diagnose(ls.parser, uriToPath(uri), text)
	if err != nil {
		ls.log.Errorf("%s: %s", uri, err)
		return nil
	}
	ctx.Notify(publishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
	return nil
}

// Diagnose parses text and converts a syntax error into a diagnostic. A
// valid document yields an empty, non-nil slice so that earlier diagnostics
// are cleared. Errors other than syntax errors are returned.
func Diagnose(parser *glr.Parser, filename, text string) ([]protocol.Diagnostic, error) {
	diagnostics := []protocol.Diagnostic{}
	_, err := parser.ParseString(text, filename)
	if err == nil {
		return diagnostics, nil
	}
	var syntaxErr *glr.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return nil, err
	}

	severity := protocol.DiagnosticSeverityError
	src := lsName
	start := toPosition(text, syntaxErr.Range.Start)
	end := start
	if line := lineAt(text, syntaxErr.Range.Start.Line); syntaxErr.Range.Start.Column <= len([]rune(line)) {
		end.Character++
		if r := []rune(line)[syntaxErr.Range.Start.Column-1]; utf16.RuneLen(r) == 2 {
			end.Character++
		}
	}
	return append(diagnostics, protocol.Diagnostic{
		Range:    protocol.Range{Start: start, End: end},
		Severity: &severity,
		Source:   &src,
		Message:  syntaxErr.Message,
	}), nil
}

// toPosition converts a rune-based position to the protocol's zero-based
// line and UTF-16 character offset.
func toPosition(text string, p source.Position) protocol.Position {
	line := []rune(lineAt(text, p.Line))
	col := p.Column - 1
	if col > len(line) {
		col = len(line)
	}
	return protocol.Position{
		Line:      protocol.UInteger(p.Line - 1),
		Character: protocol.UInteger(len(utf16.Encode(line[:col]))),
	}
}

func lineAt(text string, line int) string {
	lines := strings.Split(text, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func uriToPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err == nil {
			return filepath.Clean(parsed.Path)
		}
	}
	return uri
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
