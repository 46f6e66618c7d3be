package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"testing"

	clitestutil "github.com/leapstack-labs/fuzzrule/internal/cli/testutil"
	"github.com/leapstack-labs/fuzzrule/internal/testutil"
	"github.com/leapstack-labs/fuzzrule/pkg/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waterURI = "file:///work/water.fz"

// session scripts a client conversation and collects what the server sent.
type session struct {
	t      *testing.T
	in     bytes.Buffer
	nextID int
}

func newSession(t *testing.T) *session {
	s := &session{t: t}
	s.request("initialize", InitializeParams{RootURI: "file:///work"})
	s.notify("initialized", struct{}{})
	return s
}

func (s *session) frame(msg JSONRPCMessage) {
	body, err := json.Marshal(msg)
	require.NoError(s.t, err)
	fmt.Fprintf(&s.in, "Content-Length: %d\r\n\r\n%s", len(body), body)
}

func (s *session) request(method string, params any) int {
	s.nextID++
	id := json.RawMessage(strconv.Itoa(s.nextID))
	s.frame(JSONRPCMessage{JSONRPC: "2.0", ID: &id, Method: method, Params: mustJSON(s.t, params)})
	return s.nextID
}

func (s *session) notify(method string, params any) {
	s.frame(JSONRPCMessage{JSONRPC: "2.0", Method: method, Params: mustJSON(s.t, params)})
}

func (s *session) open(uri, text string) {
	s.notify("textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: uri, LanguageID: "fuzzrule", Version: 1, Text: text},
	})
}

func (s *session) position(method, uri string, line, char uint32) int {
	return s.request(method, TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
		Position:     Position{Line: line, Character: char},
	})
}

// run feeds the script to a server and returns its replies keyed by id and
// its notifications in order.
func (s *session) run(opts ...Option) (map[int]JSONRPCMessage, []JSONRPCMessage, error) {
	var out bytes.Buffer
	opts = append([]Option{WithLogger(testutil.NewTestLogger(s.t)), WithVersion("test")}, opts...)
	err := NewServer(&s.in, &out, opts...).Run(context.Background())

	replies := map[int]JSONRPCMessage{}
	var notes []JSONRPCMessage
	r := textproto.NewReader(bufio.NewReader(&out))
	for {
		header, herr := r.ReadMIMEHeader()
		if herr == io.EOF {
			break
		}
		require.NoError(s.t, herr)
		n, cerr := strconv.Atoi(header.Get("Content-Length"))
		require.NoError(s.t, cerr)
		body := make([]byte, n)
		_, rerr := io.ReadFull(r.R, body)
		require.NoError(s.t, rerr)

		var msg JSONRPCMessage
		require.NoError(s.t, json.Unmarshal(body, &msg))
		if msg.ID != nil && string(*msg.ID) != "null" {
			id, ierr := strconv.Atoi(string(*msg.ID))
			require.NoError(s.t, ierr)
			replies[id] = msg
			continue
		}
		notes = append(notes, msg)
	}
	return replies, notes, err
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func diagnosticsFor(t *testing.T, notes []JSONRPCMessage) []PublishDiagnosticsParams {
	t.Helper()
	var out []PublishDiagnosticsParams
	for _, n := range notes {
		if n.Method == "textDocument/publishDiagnostics" {
			out = append(out, decode[PublishDiagnosticsParams](t, n.Params))
		}
	}
	return out
}

func TestServerLifecycle(t *testing.T) {
	s := newSession(t)
	shutdownID := s.request("shutdown", nil)
	afterID := s.request("textDocument/hover", HoverParams{})
	s.notify("exit", nil)
	s.request("never/read", nil)

	replies, _, err := s.run()
	require.NoError(t, err)

	init := decode[InitializeResult](t, replies[1].Result)
	assert.True(t, init.Capabilities.HoverProvider)
	assert.True(t, init.Capabilities.DocumentFormattingProvider)
	assert.Equal(t, TextDocumentSyncKindFull, init.Capabilities.TextDocumentSync.Change)
	assert.Equal(t, "test", init.ServerInfo.Version)

	assert.Nil(t, replies[shutdownID].Error)
	require.NotNil(t, replies[afterID].Error)
	assert.Equal(t, codeInvalidRequest, replies[afterID].Error.Code)
	assert.NotContains(t, replies, 4, "messages after exit are not processed")
}

func TestServerErrors(t *testing.T) {
	t.Run("request before initialize", func(t *testing.T) {
		s := &session{t: t}
		id := s.request("textDocument/hover", HoverParams{})
		replies, _, err := s.run()
		require.NoError(t, err)
		require.NotNil(t, replies[id].Error)
		assert.Equal(t, codeNotInitialized, replies[id].Error.Code)
	})

	t.Run("unknown method", func(t *testing.T) {
		s := newSession(t)
		id := s.request("workspace/symbol", struct{}{})
		replies, _, err := s.run()
		require.NoError(t, err)
		require.NotNil(t, replies[id].Error)
		assert.Equal(t, codeMethodNotFound, replies[id].Error.Code)
	})

	t.Run("invalid params", func(t *testing.T) {
		s := newSession(t)
		s.nextID++
		id := json.RawMessage(strconv.Itoa(s.nextID))
		s.frame(JSONRPCMessage{JSONRPC: "2.0", ID: &id, Method: "textDocument/hover", Params: json.RawMessage(`[1]`)})
		replies, _, err := s.run()
		require.NoError(t, err)
		require.NotNil(t, replies[s.nextID].Error)
		assert.Equal(t, codeInvalidParams, replies[s.nextID].Error.Code)
	})

	t.Run("exit without shutdown", func(t *testing.T) {
		s := newSession(t)
		s.notify("exit", nil)
		_, _, err := s.run()
		assert.ErrorIs(t, err, ErrExitWithoutShutdown)
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newSession(t)
		s.in.WriteString("Content-Length: 5\r\n\r\n{oops")
		_, notes, err := s.run()
		require.NoError(t, err)
		require.NotEmpty(t, notes)
		last := notes[len(notes)-1]
		require.NotNil(t, last.Error)
		assert.Equal(t, codeParseError, last.Error.Code)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewServer(&bytes.Buffer{}, io.Discard).Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestServerDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		opts   []Option
		assert func(t *testing.T, diags []Diagnostic)
	}{
		{
			name: "unused sets are hints",
			text: clitestutil.WaterProgram,
			assert: func(t *testing.T, diags []Diagnostic) {
				require.Len(t, diags, 4)
				for _, d := range diags {
					assert.Equal(t, "FZ02", d.Code)
					assert.Equal(t, DiagnosticSeverityHint, d.Severity)
					assert.Equal(t, diagnosticSource, d.Source)
				}
				assert.Equal(t, Range{Start: Position{2, 4}, End: Position{2, 26}}, diags[0].Range)
				assert.Contains(t, diags[0].Message, "set medium of variable water")
			},
		},
		{
			name: "lint config applies",
			text: clitestutil.WaterProgram,
			opts: []Option{WithLintConfig(lint.NewConfig().Disable("FZ02"))},
			assert: func(t *testing.T, diags []Diagnostic) {
				assert.Empty(t, diags)
			},
		},
		{
			name: "compile error spans the line",
			text: clitestutil.BrokenProgram,
			assert: func(t *testing.T, diags []Diagnostic) {
				require.NotEmpty(t, diags)
				var compile *Diagnostic
				codes := []string{}
				for i := range diags {
					codes = append(codes, diags[i].Code)
					if diags[i].Code == "undefined set" {
						compile = &diags[i]
					}
				}
				require.NotNil(t, compile, "codes: %v", codes)
				assert.Equal(t, DiagnosticSeverityError, compile.Severity)
				assert.Equal(t, Range{Start: Position{3, 0}, End: Position{3, 51}}, compile.Range)
				assert.Contains(t, codes, "FZ03")
				assert.Contains(t, codes, "FZ07")
			},
		},
		{
			name: "syntax error hides lint",
			text: "fuzzyvar water range (0, 100 {\n}\n",
			assert: func(t *testing.T, diags []Diagnostic) {
				require.Len(t, diags, 1)
				assert.Equal(t, "syntax", diags[0].Code)
				assert.Equal(t, DiagnosticSeverityError, diags[0].Severity)
				assert.Equal(t, uint32(0), diags[0].Range.Start.Line)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t)
			s.open(waterURI, tt.text)
			_, notes, err := s.run(tt.opts...)
			require.NoError(t, err)

			published := diagnosticsFor(t, notes)
			require.Len(t, published, 1)
			assert.Equal(t, waterURI, published[0].URI)
			assert.Equal(t, 1, published[0].Version)
			tt.assert(t, published[0].Diagnostics)
		})
	}
}

func TestServerDocumentSync(t *testing.T) {
	s := newSession(t)
	s.open(waterURI, "fuzzyvar water range (0, 100 {\n}\n")
	s.notify("textDocument/didChange", DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{TextDocumentIdentifier{URI: waterURI}, 2},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: "broken"}, {Text: clitestutil.WaterProgram}},
	})
	fixed := clitestutil.WaterProgram
	s.notify("textDocument/didSave", DidSaveTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: waterURI},
		Text:         &fixed,
	})
	s.notify("textDocument/didClose", DidCloseTextDocumentParams{TextDocument: TextDocumentIdentifier{URI: waterURI}})
	s.notify("textDocument/didChange", DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{TextDocumentIdentifier{URI: waterURI}, 3},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: "x"}},
	})

	_, notes, err := s.run()
	require.NoError(t, err)

	published := diagnosticsFor(t, notes)
	require.Len(t, published, 4)
	assert.Len(t, published[0].Diagnostics, 1)
	assert.Equal(t, 2, published[1].Version)
	assert.Len(t, published[1].Diagnostics, 4)
	assert.Len(t, published[2].Diagnostics, 4)
	assert.Empty(t, published[3].Diagnostics, "close clears diagnostics")
}

func TestServerCompletion(t *testing.T) {
	const text = "fuzzyvar water range (0, 100) {\n    S low (0, 50);\n    Z lots (50, 100);\n}\n" +
		"fuzzyvar power range (0, 100) { P half (0, 50, 100); }\n" +
		"rule fill when water is l\n" +
		"rule more when w\n" +
		"ruleset pump { f\n" +
		"execute \n" +
		"ru\n"

	tests := []struct {
		name   string
		line   uint32
		char   uint32
		labels []string
	}{
		{"sets after is", 5, 25, []string{"low", "lots"}},
		{"variables after when", 6, 16, []string{"water"}},
		{"rules inside ruleset", 7, 16, []string{"fill"}},
		{"rulesets after execute", 8, 8, []string{}},
		{"keywords", 9, 2, []string{"rule", "ruleset"}},
	}

	s := newSession(t)
	// Open a parsable version first so the index is populated, then break it.
	s.open(waterURI, text[:len(text)-len("rule fill when water is l\nrule more when w\nruleset pump { f\nexecute \nru\n")]+
		"rule fill when water is low then power is half;\n")
	s.notify("textDocument/didChange", DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{TextDocumentIdentifier{URI: waterURI}, 2},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: text}},
	})
	ids := make([]int, len(tests))
	for i, tt := range tests {
		ids[i] = s.position("textDocument/completion", waterURI, tt.line, tt.char)
	}

	replies, _, err := s.run()
	require.NoError(t, err)

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := decode[CompletionList](t, replies[ids[i]].Result)
			labels := []string{}
			for _, item := range list.Items {
				labels = append(labels, item.Label)
			}
			assert.Equal(t, tt.labels, labels)
		})
	}
}

func TestServerHoverAndDefinition(t *testing.T) {
	s := newSession(t)
	s.open(waterURI, clitestutil.WaterProgram)

	// rule fill when water is low then power is half;   (line 10)
	hoverVar := s.position("textDocument/hover", waterURI, 10, 16)
	hoverSet := s.position("textDocument/hover", waterURI, 10, 25)
	hoverRule := s.position("textDocument/hover", waterURI, 10, 6)
	hoverRuleset := s.position("textDocument/hover", waterURI, 12, 10)
	hoverDecl := s.position("textDocument/hover", waterURI, 2, 8)
	hoverNothing := s.position("textDocument/hover", waterURI, 10, 4)
	defVar := s.position("textDocument/definition", waterURI, 10, 34)
	defSet := s.position("textDocument/definition", waterURI, 10, 44)
	defNothing := s.position("textDocument/definition", "file:///other.fz", 0, 0)

	replies, _, err := s.run()
	require.NoError(t, err)

	hover := func(id int) string {
		h := decode[*Hover](t, replies[id].Result)
		if h == nil {
			return ""
		}
		assert.Equal(t, MarkupKindMarkdown, h.Contents.Kind)
		return h.Contents.Value
	}

	v := hover(hoverVar)
	assert.Contains(t, v, "fuzzyvar water range (0, 100)")
	assert.Contains(t, v, "tank level")
	assert.Contains(t, v, "`medium` (0, 50, 100)")

	set := hover(hoverSet)
	assert.Contains(t, set, "water is low")
	assert.Contains(t, set, "triangle (0, 0, 50), representative 0")

	rule := hover(hoverRule)
	assert.Contains(t, rule, "**rule** `fill`")
	assert.Contains(t, rule, "when `water is low`")
	assert.Contains(t, rule, "then `power is half`")

	assert.Contains(t, hover(hoverRuleset), "every rule declared before it")
	assert.Contains(t, hover(hoverDecl), "water is medium", "set name inside its fuzzyvar block")
	assert.Empty(t, hover(hoverNothing), "keywords have no hover")

	loc := decode[*Location](t, replies[defVar].Result)
	require.NotNil(t, loc)
	assert.Equal(t, waterURI, loc.URI)
	assert.Equal(t, Position{Line: 5, Character: 0}, loc.Range.Start)

	loc = decode[*Location](t, replies[defSet].Result)
	require.NotNil(t, loc)
	assert.Equal(t, Position{Line: 7, Character: 4}, loc.Range.Start)

	assert.Nil(t, decode[*Location](t, replies[defNothing].Result))
}

func TestServerFormatting(t *testing.T) {
	s := newSession(t)
	s.open(waterURI, "rule fill when water is low then power is half;\nruleset pump {all}\n")
	s.open("file:///bad.fz", "rule (")
	format := func(uri string) int {
		return s.request("textDocument/formatting", DocumentFormattingParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Options:      FormattingOptions{TabSize: 4, InsertSpaces: true},
		})
	}
	changed := format(waterURI)
	broken := format("file:///bad.fz")
	missing := format("file:///missing.fz")

	replies, _, err := s.run()
	require.NoError(t, err)

	edits := decode[[]TextEdit](t, replies[changed].Result)
	require.Len(t, edits, 1)
	assert.Equal(t, Range{End: Position{Line: 2, Character: 0}}, edits[0].Range)
	assert.Equal(t, "rule fill\n    when water is low\n    then power is half;\n\nruleset pump { all }\n", edits[0].NewText)

	require.NotNil(t, replies[broken].Error)
	assert.Equal(t, codeRequestFailed, replies[broken].Error.Code)

	assert.Empty(t, decode[[]TextEdit](t, replies[missing].Result))
}
