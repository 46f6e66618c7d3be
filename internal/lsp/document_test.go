package lsp

import (
	"testing"

	"github.com/leapstack-labs/fuzzrule/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	uri := "file:///tmp/pump.fz"

	assert.Nil(t, store.Update(uri, "x", 2), "update of unopened document")

	doc := store.Open(uri, "execute a;", 1)
	require.NotNil(t, doc)
	assert.Same(t, doc, store.Get(uri))

	updated := store.Update(uri, "execute b;\n", 2)
	require.NotNil(t, updated)
	assert.Equal(t, "execute b;\n", updated.Content)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, []int{0, 11}, updated.Lines)

	store.Close(uri)
	assert.Nil(t, store.Get(uri))
}

func TestComputeLineOffsets(t *testing.T) {
	tests := []struct {
		content  string
		expected []int
	}{
		{"", []int{0}},
		{"abc", []int{0}},
		{"a\nb", []int{0, 2}},
		{"\n\n", []int{0, 1, 2}},
		{"rule r\nruleset s { all }\n", []int{0, 7, 25}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, computeLineOffsets(tt.content), "content %q", tt.content)
	}
}

func TestDocumentPositions(t *testing.T) {
	doc := NewDocumentStore().Open("file:///a.fz", "ruleset s { all }\nexecute s;", 1)

	tests := []struct {
		name   string
		pos    Position
		offset int
	}{
		{"start", Position{0, 0}, 0},
		{"first line", Position{0, 8}, 8},
		{"second line", Position{1, 3}, 21},
		{"past line end clamps", Position{1, 99}, len(doc.Content)},
		{"past last line clamps", Position{5, 0}, len(doc.Content)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.offset, doc.PositionToOffset(tt.pos))
		})
	}

	assert.Equal(t, Position{1, 3}, doc.OffsetToPosition(21))
	assert.Equal(t, Position{1, 0}, doc.OffsetToPosition(18))
	assert.Equal(t, Position{0, 0}, doc.OffsetToPosition(-4))
	assert.Equal(t, Position{1, 10}, doc.End())

	assert.Equal(t, "ruleset s { all }", doc.Line(0))
	assert.Equal(t, "execute s;", doc.Line(1))
	assert.Empty(t, doc.Line(2))
	assert.Equal(t, "exec", doc.LinePrefix(Position{1, 4}))
}

func TestDocumentWordAt(t *testing.T) {
	doc := NewDocumentStore().Open("file:///a.fz", "rule fill when water_level is low", 1)

	word, rng := doc.WordAt(Position{0, 17})
	assert.Equal(t, "water_level", word)
	assert.Equal(t, Range{Start: Position{0, 15}, End: Position{0, 26}}, rng)

	word, _ = doc.WordAt(Position{0, 33})
	assert.Equal(t, "low", word, "cursor at end of word")

	word, rng = doc.WordAt(Position{0, 4})
	assert.Equal(t, "rule", word)
	assert.Equal(t, uint32(0), rng.Start.Character)
}

func TestToPosition(t *testing.T) {
	assert.Equal(t, Position{}, toPosition(token.Position{}))
	assert.Equal(t, Position{Line: 2, Character: 4}, toPosition(token.Position{Line: 3, Column: 5}))
}

func TestURIConversion(t *testing.T) {
	assert.Equal(t, "/tmp/my programs/pump.fz", URIToPath("file:///tmp/my%20programs/pump.fz"))
	assert.Equal(t, "untitled:1", URIToPath("untitled:1"))
	assert.Equal(t, "file:///tmp/my%20programs/pump.fz", PathToURI("/tmp/my programs/pump.fz"))
	assert.Equal(t, "file:///x.fz", PathToURI("file:///x.fz"))
}
