package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsn0918/mdsplit/internal/block"
	"github.com/hsn0918/mdsplit/internal/config"
)

func TestBuild_SimpleNesting(t *testing.T) {
	src := "# A\n\nintro\n\n## B\n\nbody b\n\n## C\n\nbody c\n"
	blocks, err := block.Extract(src, config.Default())
	require.NoError(t, err)

	roots := Build(blocks, config.Default())
	require.Len(t, roots, 1)
	a := roots[0]
	assert.Equal(t, []string{"A"}, a.Path)
	require.Len(t, a.Children, 2)
	assert.Equal(t, []string{"A", "B"}, a.Children[0].Path)
	assert.Equal(t, []string{"A", "C"}, a.Children[1].Path)
}

func TestBuild_PopsToSiblingLevel(t *testing.T) {
	src := "# A\n\n## B\n\n### C\n\n## D\n\nbody d\n"
	blocks, err := block.Extract(src, config.Default())
	require.NoError(t, err)

	roots := Build(blocks, config.Default())
	require.Len(t, roots, 1)
	a := roots[0]
	require.Len(t, a.Children, 2)
	b := a.Children[0]
	d := a.Children[1]
	assert.Equal(t, []string{"A", "B"}, b.Path)
	assert.Equal(t, []string{"A", "D"}, d.Path)
	require.Len(t, b.Children, 1)
	assert.Equal(t, []string{"A", "B", "C"}, b.Children[0].Path)
}

func TestBuild_PreambleExtractedWhenLargeEnough(t *testing.T) {
	src := "this leading paragraph is long enough to count as a real preamble section on its own merit\n\n# Heading\n\nbody\n"
	cfg := config.Default()
	cfg.PreambleMinSize = 10
	blocks, err := block.Extract(src, cfg)
	require.NoError(t, err)

	roots := Build(blocks, cfg)
	require.Len(t, roots, 2)
	assert.True(t, roots[0].IsPreamble())
	assert.Equal(t, []string{"__preamble__"}, roots[0].Path)
	assert.Equal(t, []string{"Heading"}, roots[1].Path)
}

func TestBuild_TinyPreambleFoldedNotDropped(t *testing.T) {
	src := "hi\n\n# Heading\n\nbody\n"
	cfg := config.Default()
	cfg.PreambleMinSize = 1000
	blocks, err := block.Extract(src, cfg)
	require.NoError(t, err)

	roots := Build(blocks, cfg)
	require.Len(t, roots, 2)
	assert.False(t, roots[0].IsPreamble())
	assert.Equal(t, "hi", roots[0].Blocks[0].Content)
}

func TestBuild_EmptyHeaderTextStrippedFromPath(t *testing.T) {
	src := "# \n\nbody\n\n## Real\n\nmore\n"
	blocks, err := block.Extract(src, config.Default())
	require.NoError(t, err)

	roots := Build(blocks, config.Default())
	require.Len(t, roots, 1)
	assert.Empty(t, roots[0].Path)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, []string{"Real"}, roots[0].Children[0].Path)
}

func TestWalk_VisitsDocumentOrder(t *testing.T) {
	src := "# A\n\n## B\n\n## C\n\nbody c\n"
	blocks, err := block.Extract(src, config.Default())
	require.NoError(t, err)
	roots := Build(blocks, config.Default())

	var order []string
	Walk(roots, func(s *Section) {
		if len(s.Path) > 0 {
			order = append(order, s.Path[len(s.Path)-1])
		}
	})
	assert.Equal(t, []string{"A", "B", "C"}, order)
}
