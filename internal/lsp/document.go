package lsp

import (
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/fuzzrule/pkg/fuzzy"
	"github.com/leapstack-labs/fuzzrule/pkg/lint"
	"github.com/leapstack-labs/fuzzrule/pkg/token"
)

// Document is an open program in the editor.
type Document struct {
	URI     string
	Content string
	Version int
	Lines   []int // byte offsets of line starts

	// Index is the declaration index of the last version that parsed.
	// It survives edits that break the syntax so completion keeps working.
	Index *lint.Program
	// Model is the last successfully compiled model, or nil.
	Model *fuzzy.Model
}

func (d *Document) set(content string, version int) {
	d.Content = content
	d.Version = version
	d.Lines = computeLineOffsets(content)
}

// DocumentStore holds the documents the client has open, keyed by URI.
type DocumentStore struct {
	mu    sync.RWMutex
	byURI map[string]*Document
}

// NewDocumentStore returns an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{byURI: map[string]*Document{}}
}

// Open starts tracking uri. Reopening a URI discards the old document.
func (s *DocumentStore) Open(uri, content string, version int) *Document {
	doc := &Document{URI: uri}
	doc.set(content, version)

	s.mu.Lock()
	s.byURI[uri] = doc
	s.mu.Unlock()
	return doc
}

// Update replaces the text of an open document, or returns nil when uri
// was never opened.
func (s *DocumentStore) Update(uri, content string, version int) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc := s.byURI[uri]; doc != nil {
		doc.set(content, version)
		return doc
	}
	return nil
}

// Close stops tracking uri.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.byURI, uri)
	s.mu.Unlock()
}

// Get returns the open document for uri, or nil.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byURI[uri]
}

func computeLineOffsets(content string) []int {
	offsets := []int{0}
	for i, rest := 0, content; ; {
		n := strings.IndexByte(rest, '\n')
		if n < 0 {
			return offsets
		}
		i += n + 1
		offsets = append(offsets, i)
		rest = rest[n+1:]
	}
}

// PositionToOffset converts a Position to a byte offset, clamped to the
// content.
func (d *Document) PositionToOffset(pos Position) int {
	line := int(pos.Line)
	if line >= len(d.Lines) {
		return len(d.Content)
	}
	return min(d.Lines[line]+int(pos.Character), len(d.Content))
}

// OffsetToPosition converts a byte offset to a Position.
func (d *Document) OffsetToPosition(offset int) Position {
	offset = max(0, min(offset, len(d.Content)))
	line := sort.Search(len(d.Lines), func(i int) bool { return d.Lines[i] > offset }) - 1
	return Position{
		Line:      uint32(line),                   //nolint:gosec // G115: line index is never negative
		Character: uint32(offset - d.Lines[line]), //nolint:gosec // G115: offset is past the line start
	}
}

// End returns the position just past the last character.
func (d *Document) End() Position {
	return d.OffsetToPosition(len(d.Content))
}

// Line returns line i without its newline.
func (d *Document) Line(i int) string {
	if i < 0 || i >= len(d.Lines) {
		return ""
	}
	end := len(d.Content)
	if i+1 < len(d.Lines) {
		end = d.Lines[i+1] - 1
	}
	return strings.TrimSuffix(d.Content[d.Lines[i]:end], "\r")
}

// LinePrefix returns the text of the line holding pos, up to pos.
func (d *Document) LinePrefix(pos Position) string {
	line := int(pos.Line)
	if line >= len(d.Lines) {
		return ""
	}
	return d.Content[d.Lines[line]:d.PositionToOffset(pos)]
}

// WordAt returns the identifier under pos and its range.
func (d *Document) WordAt(pos Position) (string, Range) {
	offset := d.PositionToOffset(pos)

	start := offset
	for start > 0 && isWordChar(d.Content[start-1]) {
		start--
	}
	end := offset
	for end < len(d.Content) && isWordChar(d.Content[end]) {
		end++
	}
	if start == end {
		return "", Range{Start: pos, End: pos}
	}
	return d.Content[start:end], Range{
		Start: d.OffsetToPosition(start),
		End:   d.OffsetToPosition(end),
	}
}

func isWordChar(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c|0x20 && c|0x20 <= 'z'
}

// toPosition converts a 1-based source position to a protocol position.
func toPosition(p token.Position) Position {
	if !p.IsValid() {
		return Position{}
	}
	//nolint:gosec // G115: valid positions are 1-based
	return Position{Line: uint32(p.Line - 1), Character: uint32(max(p.Column-1, 0))}
}

// URIToPath converts a file:// URI to a file system path.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	return u.Path
}

// PathToURI converts a file system path to a file:// URI.
func PathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return (&url.URL{Scheme: "file", Path: path}).String()
}
