package postprocess

import (
	"strings"

	"go.uber.org/zap"

	"github.com/hsn0918/mdsplit/internal/block"
	"github.com/hsn0918/mdsplit/internal/chunker"
	"github.com/hsn0918/mdsplit/internal/config"
	"github.com/hsn0918/mdsplit/internal/logging"
)

// sizeNormalizerMergeTolerance is the 1.5x combined-size ceiling the merge
// pass enforces. This is a distinct constant from the structural chunker's
// sectionOversizeTolerance (1.2x): one governs how large a single
// already-emitted chunk may be to preserve section integrity, the other how
// large two small neighbors may become once merged. Unifying them would
// silently let two merges stack past what one oversize emission would ever
// allow.
const sizeNormalizerMergeTolerance = 1.5

// Normalize scans adjacent chunks and merges pairs that are both under
// min_chunk_size-driven budget pressure: same section, neither individually
// oversize, combined size within the merge tolerance, and at least one side
// below min_chunk_size. The scan restarts its look at the merged position so
// a run of several small chunks collapses in one pass.
func Normalize(chunks []chunker.Chunk, cfg config.ChunkConfig) []chunker.Chunk {
	if len(chunks) < 2 {
		return chunks
	}

	out := make([]chunker.Chunk, 0, len(chunks))
	out = append(out, chunks[0])

	for i := 1; i < len(chunks); i++ {
		prev := &out[len(out)-1]
		cur := chunks[i]

		if canMerge(*prev, cur, cfg) {
			merged := merge(*prev, cur)
			logging.Get().Info("merged adjacent undersized chunks",
				zap.Int("prev_size", prev.Size()), zap.Int("cur_size", cur.Size()), zap.Int("merged_size", merged.Size()))
			out[len(out)-1] = merged
			continue
		}
		out = append(out, cur)
	}
	return out
}

func canMerge(a, b chunker.Chunk, cfg config.ChunkConfig) bool {
	if !strings.EqualFold(strings.Join(a.Metadata.SectionPath, "/"), strings.Join(b.Metadata.SectionPath, "/")) {
		return false
	}
	if a.Metadata.AllowOversize || b.Metadata.AllowOversize {
		return false
	}
	combined := a.Size() + b.Size()
	if float64(combined) > float64(cfg.MaxChunkSize)*sizeNormalizerMergeTolerance {
		return false
	}
	return a.Size() < cfg.MinChunkSize || b.Size() < cfg.MinChunkSize
}

func merge(a, b chunker.Chunk) chunker.Chunk {
	merged := a
	merged.Content = a.Content + "\n\n" + b.Content
	merged.EndLine = b.EndLine
	merged.EndOffset = b.EndOffset

	merged.Metadata.HasCode = a.Metadata.HasCode || b.Metadata.HasCode
	merged.Metadata.HasTable = a.Metadata.HasTable || b.Metadata.HasTable
	merged.Metadata.HasList = a.Metadata.HasList || b.Metadata.HasList
	merged.Metadata.HasLinks = a.Metadata.HasLinks || b.Metadata.HasLinks
	merged.Metadata.BlockIDs = append(append([]string{}, a.Metadata.BlockIDs...), b.Metadata.BlockIDs...)
	merged.Blocks = append(append([]block.Block{}, a.Blocks...), b.Blocks...)
	return merged
}
