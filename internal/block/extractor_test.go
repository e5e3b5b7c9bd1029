package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsn0918/mdsplit/internal/config"
)

func TestExtract_HeadersAndParagraphs(t *testing.T) {
	src := "# Title\n\nSome intro text.\nMore of the same paragraph.\n\n## Section\n\nBody.\n"
	blocks, err := Extract(src, config.Default())
	require.NoError(t, err)

	var kinds []Kind
	for _, b := range blocks {
		kinds = append(kinds, b.Kind)
	}
	assert.Equal(t, []Kind{KindHeader, KindBlank, KindParagraph, KindBlank, KindHeader, KindBlank, KindParagraph}, kinds)
	assert.Equal(t, 1, blocks[0].Header.Level)
	assert.Equal(t, "Title", blocks[0].Header.Text)
	assert.Equal(t, 2, blocks[4].Header.Level)
}

func TestExtract_SetextHeader(t *testing.T) {
	src := "Title\n=====\n\nBody text.\n"
	blocks, err := Extract(src, config.Default())
	require.NoError(t, err)
	require.NotEmpty(t, blocks)
	require.NotNil(t, blocks[0].Header)
	assert.Equal(t, 1, blocks[0].Header.Level)
	assert.Equal(t, "Title", blocks[0].Header.Text)
	assert.Equal(t, 1, blocks[0].StartLine)
	assert.Equal(t, 2, blocks[0].EndLine)
}

func TestExtract_FencedCodeClosed(t *testing.T) {
	src := "```go\nfmt.Println(\"hi\")\n```\n"
	blocks, err := Extract(src, config.Default())
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.NotNil(t, blocks[0].Code)
	assert.False(t, blocks[0].Code.Unclosed)
	assert.Equal(t, "go", blocks[0].Code.Language)
	assert.Equal(t, "```go\nfmt.Println(\"hi\")\n```", blocks[0].Content)
}

func TestExtract_FencedCodeUnclosedToEOF(t *testing.T) {
	src := "```go\nfmt.Println(\"hi\")\n"
	blocks, err := Extract(src, config.Default())
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.NotNil(t, blocks[0].Code)
	assert.True(t, blocks[0].Code.Unclosed)
}

func TestExtract_NestedFenceDoesNotCloseEarly(t *testing.T) {
	src := "````markdown\n```go\ncode\n```\n````\n"
	blocks, err := Extract(src, config.Default())
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 5, blocks[0].EndLine)
}

func TestExtract_Table(t *testing.T) {
	src := "| A | B |\n|---|---|\n| 1 | 2 |\n"
	blocks, err := Extract(src, config.Default())
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, KindTable, blocks[0].Kind)
}

func TestExtract_List(t *testing.T) {
	src := "- one\n- two\n  continued\n- three\n"
	blocks, err := Extract(src, config.Default())
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.NotNil(t, blocks[0].List)
	assert.False(t, blocks[0].List.Ordered)
}

func TestExtract_OrderedList(t *testing.T) {
	src := "1. one\n2. two\n3. three\n"
	blocks, err := Extract(src, config.Default())
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.NotNil(t, blocks[0].List)
	assert.True(t, blocks[0].List.Ordered)
}

func TestExtract_Blockquote(t *testing.T) {
	src := "> quoted line one\n> quoted line two\n"
	blocks, err := Extract(src, config.Default())
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, KindBlockquote, blocks[0].Kind)
}

func TestExtract_URLPoolGatedByConfig(t *testing.T) {
	src := "https://example.com/a\nhttps://example.com/b\nhttps://example.com/c\n"

	disabled, err := Extract(src, config.Default())
	require.NoError(t, err)
	assert.Equal(t, KindParagraph, disabled[0].Kind)

	cfg := config.Default()
	cfg.DetectURLPools = true
	enabled, err := Extract(src, cfg)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, KindURLPool, enabled[0].Kind)
}

func TestExtract_ContentIsExactSourceSlice(t *testing.T) {
	src := "# H\n\nbody one\nbody two\n\n- a\n- b\n"
	blocks, err := Extract(src, config.Default())
	require.NoError(t, err)
	for _, b := range blocks {
		assert.Equal(t, src[b.StartOffset:b.EndOffset], b.Content)
	}
}

func TestExtract_OverlongLineRejected(t *testing.T) {
	huge := make([]byte, (1<<20)+10)
	for i := range huge {
		huge[i] = 'a'
	}
	_, err := Extract(string(huge), config.Default())
	require.Error(t, err)
}

func TestExtract_EmptyLinesCollapseIntoOneBlankBlock(t *testing.T) {
	src := "a\n\n\n\nb\n"
	blocks, err := Extract(src, config.Default())
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, KindBlank, blocks[1].Kind)
	assert.Equal(t, 2, blocks[1].StartLine)
	assert.Equal(t, 4, blocks[1].EndLine)
}
