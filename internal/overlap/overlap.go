// Package overlap computes block-based overlap windows between adjacent
// chunks of the same document, after chunking and before rendering.
package overlap

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hsn0918/mdsplit/internal/block"
	"github.com/hsn0918/mdsplit/internal/chunker"
	"github.com/hsn0918/mdsplit/internal/config"
	"github.com/hsn0918/mdsplit/internal/logging"
	"github.com/hsn0918/mdsplit/internal/textutil"
)

// nonOverlapKinds are the block kinds skipped (but not halted on) while
// walking a chunk's edge for eligible overlap content: blanks carry no
// content, and code/table blocks are non-splittable — duplicating either
// into a neighbor's context would break the appears-in-exactly-one-chunk
// and fence-balance invariants. Headers are handled separately: a header
// is a section boundary and halts the walk entirely rather than being
// skipped over.
var nonOverlapKinds = map[block.Kind]bool{
	block.KindBlank: true,
	block.KindCode:  true,
	block.KindTable: true,
}

// Compute fills PreviousContent/NextContent on every chunk in place,
// walking backward from the end of each chunk and forward from the start
// of its neighbor, skipping non-overlap kinds, accumulating until
// overlap_size is reached, then trimming to the overlap_percentage cap.
//
// Overlap is attempted between every adjacent pair regardless of
// section_path: a header block halts the walk before it ever crosses
// into a different section, so the section boundary is enforced by the
// header-skip alone, not by a path comparison here.
func Compute(chunks []chunker.Chunk, cfg config.ChunkConfig) {
	if !cfg.EnableOverlap || len(chunks) < 2 {
		return
	}

	for i := 0; i < len(chunks)-1; i++ {
		left := &chunks[i]
		right := &chunks[i+1]

		nextCtx := accumulateForward(right.Blocks, cfg.OverlapSize)
		prevCtx := accumulateBackward(left.Blocks, cfg.OverlapSize)

		// next_context is ordered nearest-to-boundary first; trimming to
		// the ratio cap must drop the farthest (trailing) content and keep
		// the prefix.
		trimmedNext := capToRatio(nextCtx, left.Size(), cfg.OverlapPercentage, false)
		if trimmedNext != nextCtx {
			logging.Get().Info("trimmed next_content to the overlap ratio cap",
				zap.Int("chunk_index", i), zap.Int("before", utf8.RuneCountInString(nextCtx)), zap.Int("after", utf8.RuneCountInString(trimmedNext)))
		}
		left.Metadata.NextContent = trimmedNext

		// previous_content is ordered nearest-to-boundary last; trimming
		// must drop the farthest (leading) content and keep the suffix.
		trimmedPrev := capToRatio(prevCtx, right.Size(), cfg.OverlapPercentage, true)
		if trimmedPrev != prevCtx {
			logging.Get().Info("trimmed previous_content to the overlap ratio cap",
				zap.Int("chunk_index", i+1), zap.Int("before", utf8.RuneCountInString(prevCtx)), zap.Int("after", utf8.RuneCountInString(trimmedPrev)))
		}
		right.Metadata.PreviousContent = trimmedPrev
	}
}

// accumulateBackward walks a chunk's blocks from the end, skipping
// non-overlap kinds, collecting eligible blocks until their combined size
// reaches target.
func accumulateBackward(blocks []block.Block, target int) string {
	var picked []string
	total := 0
	for i := len(blocks) - 1; i >= 0 && total < target; i-- {
		b := blocks[i]
		if b.Kind == block.KindHeader {
			break // a header is a section boundary; never walk past it
		}
		if nonOverlapKinds[b.Kind] {
			continue // blank/code/table: not eligible, but keep walking past it
		}
		picked = append([]string{b.Content}, picked...)
		total += utf8.RuneCountInString(b.Content)
	}
	return strings.Join(picked, "\n\n")
}

// accumulateForward is the symmetric procedure from the start of the next
// chunk's blocks.
func accumulateForward(blocks []block.Block, target int) string {
	var picked []string
	total := 0
	for i := 0; i < len(blocks) && total < target; i++ {
		b := blocks[i]
		if b.Kind == block.KindHeader {
			break
		}
		if nonOverlapKinds[b.Kind] {
			continue
		}
		picked = append(picked, b.Content)
		total += utf8.RuneCountInString(b.Content)
	}
	return strings.Join(picked, "\n\n")
}

// capToRatio enforces the hard overlap ratio cap (default 50%) against the
// core size of the chunk that receives ctx, trimming at a word boundary so
// that the content farthest from the chunk boundary is dropped: the suffix
// is kept when fromEnd is true (previous_content), the prefix otherwise
// (next_content).
func capToRatio(ctx string, neighborCoreSize int, ratio float64, fromEnd bool) string {
	if ctx == "" {
		return ""
	}
	ctxSize := utf8.RuneCountInString(ctx)
	maxAllowed := int(float64(neighborCoreSize+ctxSize) * ratio)
	if ctxSize <= maxAllowed {
		return ctx
	}
	trimmed := textutil.TruncateAtWordBoundary(ctx, maxAllowed, fromEnd)
	// Re-check: word-boundary trimming can retain slightly more than
	// maxAllowed when no boundary falls nearby, which would push the ratio
	// back over the cap against the (now smaller) total. Fall back to an
	// exact rune cut, one rune at a time, until the cap actually holds.
	for utf8.RuneCountInString(trimmed) > 0 {
		n := utf8.RuneCountInString(trimmed)
		total := neighborCoreSize + n
		if float64(n)/float64(total) <= ratio {
			break
		}
		trimmed = truncateRunes(trimmed, n-1, fromEnd)
	}
	return trimmed
}

// truncateRunes keeps the last maxRunes runes of s when fromEnd is true
// (dropping the leading/farthest content), or the first maxRunes runes
// otherwise (dropping the trailing/farthest content).
func truncateRunes(s string, maxRunes int, fromEnd bool) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if fromEnd {
		return string(runes[len(runes)-maxRunes:])
	}
	return string(runes[:maxRunes])
}
