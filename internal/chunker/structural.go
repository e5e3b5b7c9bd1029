package chunker

import (
	"github.com/hsn0918/mdsplit/internal/config"
	"github.com/hsn0918/mdsplit/internal/section"
)

// structuralStrategy is the primary, always-applicable packer (§4.3). It
// is also the level-1 fallback the dispatcher retries with if whatever the
// auto path chose raised or produced nothing.
type structuralStrategy struct{}

func newStructuralStrategy() Strategy { return structuralStrategy{} }

func (structuralStrategy) Name() string { return config.StrategyStructural }

func (structuralStrategy) CanHandle(Analysis, config.ChunkConfig) bool { return true }

// Quality is a deliberately low baseline: structural only wins auto
// selection when no more specific strategy's CanHandle matched.
func (structuralStrategy) Quality(Analysis) float64 { return 0.5 }

func (structuralStrategy) Apply(roots []*section.Section, cfg config.ChunkConfig) ([]Chunk, error) {
	return packSections(roots, cfg, config.StrategyStructural, variantPlain), nil
}

// codeStrategy is selected by auto when the document is code-heavy. It
// packs identically to structural except it tolerates a small size
// overrun to keep a code block attached to its preceding lead-in block
// rather than isolating it in its own chunk.
type codeStrategy struct{}

func newCodeStrategy() Strategy { return codeStrategy{} }

func (codeStrategy) Name() string { return config.StrategyCode }

func (codeStrategy) CanHandle(a Analysis, cfg config.ChunkConfig) bool {
	return a.CodeBlocks >= 1 && a.CodeRatio() >= cfg.CodeRatioThreshold
}

func (codeStrategy) Quality(a Analysis) float64 { return 0.6 + 0.4*a.CodeRatio() }

func (codeStrategy) Apply(roots []*section.Section, cfg config.ChunkConfig) ([]Chunk, error) {
	return packSections(roots, cfg, config.StrategyCode, variantCodeAffinity), nil
}

// tableStrategy is selected by auto when the document is table-heavy.
// Tables are already atomic single blocks by the time they reach the
// chunker (the extractor keeps a full table run, including rows with
// inconsistent column counts, as one block), so "row-group packing" here
// is the same whole-block greedy packer as structural; the distinct
// strategy name and CanHandle/Quality routing are what the auto selector
// actually uses.
type tableStrategy struct{}

func newTableStrategy() Strategy { return tableStrategy{} }

func (tableStrategy) Name() string { return config.StrategyTable }

func (tableStrategy) CanHandle(a Analysis, cfg config.ChunkConfig) bool {
	return a.TableBlocks >= 1 && a.TableRatio() >= cfg.TableRatioThreshold
}

func (tableStrategy) Quality(a Analysis) float64 { return 0.6 + 0.4*a.TableRatio() }

func (tableStrategy) Apply(roots []*section.Section, cfg config.ChunkConfig) ([]Chunk, error) {
	return packSections(roots, cfg, config.StrategyTable, variantPlain), nil
}

// listStrategy is selected by auto for list-heavy documents. List blocks
// are already atomic and only sub-split item-wise when a single list
// block alone exceeds max_chunk_size, regardless of which strategy is
// active, so this also reduces to the plain packer.
type listStrategy struct{}

func newListStrategy() Strategy { return listStrategy{} }

func (listStrategy) Name() string { return config.StrategyList }

func (listStrategy) CanHandle(a Analysis, cfg config.ChunkConfig) bool {
	return a.ListBlocks >= 1 && a.ListRatio() >= cfg.ListRatioThreshold
}

func (listStrategy) Quality(a Analysis) float64 { return 0.55 + 0.4*a.ListRatio() }

func (listStrategy) Apply(roots []*section.Section, cfg config.ChunkConfig) ([]Chunk, error) {
	return packSections(roots, cfg, config.StrategyList, variantPlain), nil
}

// mixedStrategy is the explicit "more than one content type dominates"
// choice; it is never auto-selected (its CanHandle is always false so code
// /table/list win when they qualify and structural wins otherwise) but can
// be named directly via strategy_override.
type mixedStrategy struct{}

func newMixedStrategy() Strategy { return mixedStrategy{} }

func (mixedStrategy) Name() string { return config.StrategyMixed }

func (mixedStrategy) CanHandle(Analysis, config.ChunkConfig) bool { return false }

func (mixedStrategy) Quality(Analysis) float64 { return 0 }

func (mixedStrategy) Apply(roots []*section.Section, cfg config.ChunkConfig) ([]Chunk, error) {
	return packSections(roots, cfg, config.StrategyMixed, variantPlain), nil
}
