package postprocess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hsn0918/mdsplit/internal/chunker"
	"github.com/hsn0918/mdsplit/internal/config"
)

func mk(content string, path []string, oversize bool) chunker.Chunk {
	return chunker.Chunk{
		Content: content,
		Metadata: chunker.Metadata{
			SectionPath:   path,
			AllowOversize: oversize,
		},
	}
}

func TestNormalize_MergesTwoSmallAdjacentChunks(t *testing.T) {
	cfg := config.Default()
	cfg.MaxChunkSize = 100
	cfg.MinChunkSize = 50

	a := mk(strings.Repeat("a", 10), []string{"S"}, false)
	b := mk(strings.Repeat("b", 10), []string{"S"}, false)

	out := Normalize([]chunker.Chunk{a, b}, cfg)
	assert.Len(t, out, 1)
	assert.Contains(t, out[0].Content, "aaaaaaaaaa")
	assert.Contains(t, out[0].Content, "bbbbbbbbbb")
}

func TestNormalize_DoesNotMergeAcrossDifferentSections(t *testing.T) {
	cfg := config.Default()
	cfg.MaxChunkSize = 100
	cfg.MinChunkSize = 50

	a := mk(strings.Repeat("a", 10), []string{"S1"}, false)
	b := mk(strings.Repeat("b", 10), []string{"S2"}, false)

	out := Normalize([]chunker.Chunk{a, b}, cfg)
	assert.Len(t, out, 2)
}

func TestNormalize_DoesNotMergeWhenOneIsOversize(t *testing.T) {
	cfg := config.Default()
	cfg.MaxChunkSize = 100
	cfg.MinChunkSize = 50

	a := mk(strings.Repeat("a", 10), []string{"S"}, true)
	b := mk(strings.Repeat("b", 10), []string{"S"}, false)

	out := Normalize([]chunker.Chunk{a, b}, cfg)
	assert.Len(t, out, 2)
}

func TestNormalize_DoesNotMergeWhenCombinedExceedsTolerance(t *testing.T) {
	cfg := config.Default()
	cfg.MaxChunkSize = 10
	cfg.MinChunkSize = 5

	a := mk(strings.Repeat("a", 8), []string{"S"}, false)
	b := mk(strings.Repeat("b", 8), []string{"S"}, false)

	out := Normalize([]chunker.Chunk{a, b}, cfg)
	assert.Len(t, out, 2)
}

func TestNormalize_DoesNotMergeWhenBothAlreadyAboveMin(t *testing.T) {
	cfg := config.Default()
	cfg.MaxChunkSize = 100
	cfg.MinChunkSize = 10

	a := mk(strings.Repeat("a", 20), []string{"S"}, false)
	b := mk(strings.Repeat("b", 20), []string{"S"}, false)

	out := Normalize([]chunker.Chunk{a, b}, cfg)
	assert.Len(t, out, 2)
}

func TestNormalize_MergeOrsFlags(t *testing.T) {
	cfg := config.Default()
	cfg.MaxChunkSize = 100
	cfg.MinChunkSize = 50

	a := mk(strings.Repeat("a", 5), []string{"S"}, false)
	a.Metadata.HasCode = true
	b := mk(strings.Repeat("b", 5), []string{"S"}, false)
	b.Metadata.HasTable = true

	out := Normalize([]chunker.Chunk{a, b}, cfg)
	assert.Len(t, out, 1)
	assert.True(t, out[0].Metadata.HasCode)
	assert.True(t, out[0].Metadata.HasTable)
}
