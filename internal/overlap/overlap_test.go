package overlap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsn0918/mdsplit/internal/block"
	"github.com/hsn0918/mdsplit/internal/chunker"
	"github.com/hsn0918/mdsplit/internal/config"
)

func paraBlock(content string) block.Block {
	b := block.Block{Kind: block.KindParagraph, Content: content}
	b.Size = len([]rune(content))
	return b
}

func headerBlock(text string) block.Block {
	b := block.Block{Kind: block.KindHeader, Content: text, Header: &block.HeaderInfo{Text: text}}
	b.Size = len([]rune(text))
	return b
}

func TestCompute_FillsAdjacentContextWithinSamePath(t *testing.T) {
	cfg := config.Default()
	cfg.OverlapSize = 50
	cfg.OverlapPercentage = 1.0

	left := chunker.Chunk{
		Content: "first paragraph content here",
		Metadata: chunker.Metadata{
			SectionPath: []string{"Intro"},
		},
		Blocks: []block.Block{paraBlock("first paragraph content here")},
	}
	right := chunker.Chunk{
		Content: "second paragraph content here",
		Metadata: chunker.Metadata{
			SectionPath: []string{"Intro"},
		},
		Blocks: []block.Block{paraBlock("second paragraph content here")},
	}

	chunks := []chunker.Chunk{left, right}
	Compute(chunks, cfg)

	// left's next_content previews the start of the chunk after it; right's
	// previous_content previews the end of the chunk before it.
	assert.Equal(t, "second paragraph content here", chunks[0].Metadata.NextContent)
	assert.Equal(t, "first paragraph content here", chunks[1].Metadata.PreviousContent)
}

// TestCompute_OverlapsAcrossSectionsUntilHeaderBoundary models the S4
// scenario: three sibling H1 sections, each chunk starting with its own
// header. previous_content for a later section's chunk is a suffix of the
// prior section's trailing body (pulled backward until that prior
// section's own header halts the walk); there is no section_path gate.
func TestCompute_OverlapsAcrossSectionsUntilHeaderBoundary(t *testing.T) {
	cfg := config.Default()
	cfg.OverlapSize = 500
	cfg.OverlapPercentage = 1.0

	left := chunker.Chunk{
		Content:  "Section A\n\ntrailing body of A",
		Metadata: chunker.Metadata{SectionPath: []string{"Section A"}},
		Blocks:   []block.Block{headerBlock("Section A"), paraBlock("trailing body of A")},
	}
	right := chunker.Chunk{
		Content:  "Section B\n\nleading body of B",
		Metadata: chunker.Metadata{SectionPath: []string{"Section B"}},
		Blocks:   []block.Block{headerBlock("Section B"), paraBlock("leading body of B")},
	}

	chunks := []chunker.Chunk{left, right}
	Compute(chunks, cfg)

	// previous_content pulls A's trailing body backward until A's own
	// header halts the walk.
	assert.Equal(t, "trailing body of A", chunks[1].Metadata.PreviousContent)
	// next_content would have to walk forward into B's blocks, but B's
	// first block is its own header, halting the walk immediately.
	assert.Empty(t, chunks[0].Metadata.NextContent)
}

func TestCompute_StopsAtHeaderBoundary(t *testing.T) {
	cfg := config.Default()
	cfg.OverlapSize = 500
	cfg.OverlapPercentage = 1.0

	left := chunker.Chunk{
		Content: "heading\n\nbody text",
		Metadata: chunker.Metadata{
			SectionPath: []string{"Intro"},
		},
		Blocks: []block.Block{headerBlock("heading"), paraBlock("body text")},
	}
	right := chunker.Chunk{
		Content:  "next body",
		Metadata: chunker.Metadata{SectionPath: []string{"Intro"}},
		Blocks:   []block.Block{paraBlock("next body")},
	}

	chunks := []chunker.Chunk{left, right}
	Compute(chunks, cfg)

	// walking backward from the end of left for right's previous_content
	// stops at left's own header, so only the body past it is pulled in.
	assert.Equal(t, "body text", chunks[1].Metadata.PreviousContent)
}

func TestCompute_SkipsCodeAndTableBlocksButKeepsWalking(t *testing.T) {
	cfg := config.Default()
	cfg.OverlapSize = 500
	cfg.OverlapPercentage = 1.0

	codeBlk := block.Block{Kind: block.KindCode, Content: "fmt.Println(1)"}
	codeBlk.Size = len([]rune(codeBlk.Content))

	left := chunker.Chunk{
		Content:  "lead in\n\nfmt.Println(1)",
		Metadata: chunker.Metadata{SectionPath: []string{"S"}},
		Blocks:   []block.Block{paraBlock("lead in"), codeBlk},
	}
	right := chunker.Chunk{
		Content:  "after",
		Metadata: chunker.Metadata{SectionPath: []string{"S"}},
		Blocks:   []block.Block{paraBlock("after")},
	}

	chunks := []chunker.Chunk{left, right}
	Compute(chunks, cfg)

	// walking backward from the end of left, the trailing code block is
	// ineligible but only skipped, not a halt: the walk continues past it
	// and picks up the earlier paragraph, without ever including the code
	// block's own content.
	assert.Equal(t, "lead in", chunks[1].Metadata.PreviousContent)
}

func TestCompute_RatioCapTrimsAndKeepsNearBoundarySide(t *testing.T) {
	cfg := config.Default()
	cfg.OverlapSize = 1000
	cfg.OverlapPercentage = 0.5

	longText := strings.Repeat("word ", 40)
	left := chunker.Chunk{
		Content:  longText,
		Metadata: chunker.Metadata{SectionPath: []string{"S"}},
		Blocks:   []block.Block{paraBlock(longText)},
	}
	right := chunker.Chunk{
		Content:  "short",
		Metadata: chunker.Metadata{SectionPath: []string{"S"}},
		Blocks:   []block.Block{paraBlock("short")},
	}

	chunks := []chunker.Chunk{left, right}
	Compute(chunks, cfg)

	// right's previous_content pulls all of left's long body backward; its
	// small core size forces the ratio cap to trim it.
	prev := chunks[1].Metadata.PreviousContent
	require.NotEmpty(t, prev)
	neighborCore := chunks[1].Size()
	ratio := float64(len([]rune(prev))) / float64(neighborCore+len([]rune(prev)))
	assert.LessOrEqual(t, ratio, cfg.OverlapPercentage+1e-9)
	// previous_content is nearest-to-boundary-last, so trimming must keep
	// the suffix (the end of the accumulated text) and drop the head.
	assert.True(t, strings.HasSuffix(longText, strings.TrimSpace(prev)) || strings.HasSuffix(prev, "word"))
}

func TestCompute_NoOverlapWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.EnableOverlap = false

	left := chunker.Chunk{Content: "a", Metadata: chunker.Metadata{SectionPath: []string{"S"}}, Blocks: []block.Block{paraBlock("a")}}
	right := chunker.Chunk{Content: "b", Metadata: chunker.Metadata{SectionPath: []string{"S"}}, Blocks: []block.Block{paraBlock("b")}}

	chunks := []chunker.Chunk{left, right}
	Compute(chunks, cfg)

	assert.Empty(t, chunks[0].Metadata.NextContent)
	assert.Empty(t, chunks[1].Metadata.PreviousContent)
}

func TestCompute_EmptyBlocksProduceNoContextWithoutPanicking(t *testing.T) {
	cfg := config.Default()

	left := chunker.Chunk{Content: "a", Metadata: chunker.Metadata{SectionPath: []string{"S"}}}
	right := chunker.Chunk{Content: "b", Metadata: chunker.Metadata{SectionPath: []string{"S"}}}

	chunks := []chunker.Chunk{left, right}
	assert.NotPanics(t, func() { Compute(chunks, cfg) })
	assert.Empty(t, chunks[0].Metadata.NextContent)
	assert.Empty(t, chunks[1].Metadata.PreviousContent)
}
