// Package validate implements the completeness validator: the final check
// that nothing the source said got lost, duplicated, or left dangling
// across the emitted chunks.
package validate

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hsn0918/mdsplit/internal/block"
	"github.com/hsn0918/mdsplit/internal/chunker"
	"github.com/hsn0918/mdsplit/internal/chunkerrors"
	"github.com/hsn0918/mdsplit/internal/config"
	"github.com/hsn0918/mdsplit/internal/logging"
	"github.com/hsn0918/mdsplit/internal/textutil"
)

// minRecall is the line-recall floor below which the document is considered
// to have lost content, per the completeness invariant.
const minRecall = 0.95

// Result carries the validator's findings. In non-strict mode Warnings
// accumulate and the caller proceeds; in strict mode the first failure is
// returned as an error instead.
type Result struct {
	Recall   float64
	Warnings []string
}

// Completeness runs every check against source and the final chunk set.
// cfg.StrictMode escalates the first failing check to a *chunkerrors.Error
// instead of recording a warning.
func Completeness(source string, chunks []chunker.Chunk, cfg config.ChunkConfig) (Result, error) {
	var res Result

	recall, gaps := lineRecall(source, chunks)
	res.Recall = recall
	if recall < minRecall {
		if cfg.StrictMode {
			return res, chunkerrors.NewIncompleteCoverage(gaps)
		}
		msg := fmt.Sprintf("line recall %.3f is below the %.2f floor", recall, minRecall)
		res.Warnings = append(res.Warnings, msg)
		logging.Get().Warn(msg, zap.Float64("recall", recall), zap.Int("gap_count", len(gaps)))
	}

	if reason, bad := unbalancedFence(chunks); bad {
		if cfg.StrictMode {
			return res, chunkerrors.NewInvalidChunk(reason)
		}
		res.Warnings = append(res.Warnings, reason)
		logging.Get().Warn(reason, zap.String("check", "unbalanced_fence"))
	}

	if reason, bad := duplicatedTable(chunks); bad {
		if cfg.StrictMode {
			return res, chunkerrors.NewInvalidChunk(reason)
		}
		res.Warnings = append(res.Warnings, reason)
		logging.Get().Warn(reason, zap.String("check", "duplicated_table"))
	}

	return res, nil
}

// lineRecall computes the fraction of non-trivial source lines (normalized,
// length >= 20 runes) that appear verbatim, after the same normalization, in
// at least one chunk's own content.
func lineRecall(source string, chunks []chunker.Chunk) (float64, []chunkerrors.LineGap) {
	sourceLines := strings.Split(source, "\n")

	present := make(map[string]bool)
	for _, c := range chunks {
		for _, line := range strings.Split(c.Content, "\n") {
			present[textutil.NormalizeLine(line)] = true
		}
	}

	total := 0
	covered := 0
	var gaps []chunkerrors.LineGap
	gapOpen := false
	gapStart := 0

	for i, line := range sourceLines {
		if textutil.IsTrivialLine(line) {
			continue
		}
		total++
		norm := textutil.NormalizeLine(line)
		if present[norm] {
			covered++
			if gapOpen {
				gaps = append(gaps, chunkerrors.LineGap{StartLine: gapStart, EndLine: i})
				gapOpen = false
			}
			continue
		}
		if !gapOpen {
			gapOpen = true
			gapStart = i + 1
		}
	}
	if gapOpen {
		gaps = append(gaps, chunkerrors.LineGap{StartLine: gapStart, EndLine: len(sourceLines)})
	}

	if total == 0 {
		return 1.0, nil
	}
	return float64(covered) / float64(total), gaps
}

// unbalancedFence reports the first chunk whose content contains an odd
// number of fence delimiters for either fence character without an
// allow_oversize escape hatch — a fence split across a chunk boundary
// without the chunker's own sign-off that it knows the content is atomic.
func unbalancedFence(chunks []chunker.Chunk) (string, bool) {
	for i, c := range chunks {
		if c.Metadata.AllowOversize {
			continue
		}
		if textutil.CountFences(c.Content, '`')%2 != 0 {
			return fmt.Sprintf("chunk %d has an unbalanced backtick fence", i), true
		}
		if textutil.CountFences(c.Content, '~')%2 != 0 {
			return fmt.Sprintf("chunk %d has an unbalanced tilde fence", i), true
		}
	}
	return "", false
}

// duplicatedTable reports whether any table block's content appears in more
// than one chunk's own body, which would mean the same row data gets
// indexed (and could be retrieved) twice.
func duplicatedTable(chunks []chunker.Chunk) (string, bool) {
	seenIn := make(map[string]int)
	for _, c := range chunks {
		for _, b := range c.Blocks {
			if b.Kind != block.KindTable {
				continue
			}
			seenIn[b.Content]++
			if seenIn[b.Content] > 1 {
				preview := textutil.SafeUTF8Truncate(b.Content, 80)
				return fmt.Sprintf("a table block appears in more than one chunk: %q", preview), true
			}
		}
	}
	return "", false
}
