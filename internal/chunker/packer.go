package chunker

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/hsn0918/mdsplit/internal/block"
	"github.com/hsn0918/mdsplit/internal/config"
	"github.com/hsn0918/mdsplit/internal/section"
	"github.com/hsn0918/mdsplit/internal/textutil"
)

// parallelSectionThreshold is the minimum root-section count before
// fan-out is worth its goroutine overhead; below it packSections runs
// sequentially on the calling goroutine.
const parallelSectionThreshold = 4

// sectionOversizeTolerance is the factor within which a section that can't
// be split without corrupting structure is still emitted as a single
// oversize chunk rather than forced through block-level splitting. Distinct
// from and never unified with the size normalizer's merge tolerance.
const sectionOversizeTolerance = 1.2

// codeAffinityTolerance is how far over budget a buffer may go so a code
// block keeps at least one preceding non-code block for context, per the
// code-heavy auto-selection's packing preference.
const codeAffinityTolerance = 1.1

// packVariant toggles packing heuristics that differ between the code- and
// table-oriented auto-selected strategies and the plain structural packer.
// At the block granularity used here, code and table blocks are already
// atomic single Block values (the extractor keeps a table's full row run,
// inconsistent column counts included, as one block) so "row-group
// packing" for table-heavy documents collapses to ordinary whole-block
// packing; only the code-affinity heuristic changes behavior.
type packVariant int

const (
	variantPlain packVariant = iota
	variantCodeAffinity
)

// packSections packs every root section under strategyName/variant and
// concatenates their chunks, preserving document order. Per-section packing
// touches no shared mutable state (each call only reads cfg and its own
// section subtree), so at parallelSectionThreshold roots or more this fans the
// work out across goroutines — result order is preserved by writing into
// pre-allocated index slots rather than appending from whichever goroutine
// finishes first.
func packSections(roots []*section.Section, cfg config.ChunkConfig, strategyName string, variant packVariant) []Chunk {
	if len(roots) < parallelSectionThreshold {
		var out []Chunk
		for _, s := range roots {
			out = append(out, packSection(s, cfg, strategyName, variant)...)
		}
		return out
	}

	perSection := make([][]Chunk, len(roots))
	var g errgroup.Group
	for i, s := range roots {
		i, s := i, s
		g.Go(func() error {
			perSection[i] = packSection(s, cfg, strategyName, variant)
			return nil
		})
	}
	_ = g.Wait() // packSection never returns an error

	var out []Chunk
	for _, cs := range perSection {
		out = append(out, cs...)
	}
	return out
}

// packSection implements §4.3 steps 1-3 for a single section.
func packSection(sec *section.Section, cfg config.ChunkConfig, strategyName string, variant packVariant) []Chunk {
	ownSize := estimateSize(sec.Header, sec.Blocks)

	if len(sec.Children) == 0 {
		if ownSize <= cfg.MaxChunkSize {
			return []Chunk{buildChunk(sec.Header, sec.Blocks, sec.Path, cfg, strategyName, false, "")}
		}
		if float64(ownSize) <= float64(cfg.MaxChunkSize)*sectionOversizeTolerance {
			return []Chunk{buildChunk(sec.Header, sec.Blocks, sec.Path, cfg, strategyName, true, OversizeSectionIntegrity)}
		}
		return packBlocksGreedy(sec.Header, sec.Blocks, sec.Path, cfg, strategyName, variant)
	}

	// Has children: a section whose total rendered size already fits can
	// still be emitted whole, even though it has sub-headers, because a
	// smaller max_chunk_size downstream would just re-split it needlessly.
	totalSize := estimateSize(sec.Header, flattenSection(sec))
	if totalSize <= cfg.MaxChunkSize {
		return []Chunk{buildChunk(sec.Header, flattenSection(sec), sec.Path, cfg, strategyName, false, "")}
	}

	var out []Chunk
	if ownSize > 0 {
		if ownSize <= cfg.MaxChunkSize {
			out = append(out, buildChunk(sec.Header, sec.Blocks, sec.Path, cfg, strategyName, false, ""))
		} else {
			out = append(out, packBlocksGreedy(sec.Header, sec.Blocks, sec.Path, cfg, strategyName, variant)...)
		}
	} else if sec.Header != nil {
		out = append(out, buildChunk(sec.Header, nil, sec.Path, cfg, strategyName, false, ""))
	}
	for _, c := range sec.Children {
		out = append(out, packSection(c, cfg, strategyName, variant)...)
	}
	return out
}

// flattenSection linearizes a section and all descendants back into a flat
// block sequence (header blocks included) for the "whole subtree actually
// fits" emission path.
func flattenSection(sec *section.Section) []block.Block {
	var out []block.Block
	var walk func(s *section.Section)
	walk = func(s *section.Section) {
		out = append(out, s.Blocks...)
		for _, c := range s.Children {
			if c.Header != nil {
				out = append(out, *c.Header)
			}
			walk(c)
		}
	}
	walk(sec)
	return out
}

// estimateSize is the deterministic size measure used both to decide
// packing and to evaluate the 1.2x/oversize tolerances: header size plus
// every non-blank block's size plus two characters per "\n\n" join.
func estimateSize(header *block.Block, blocks []block.Block) int {
	n := 0
	parts := 0
	if header != nil {
		n += header.Size
		parts++
	}
	for _, b := range blocks {
		if b.Kind == block.KindBlank {
			continue
		}
		n += b.Size
		parts++
	}
	if parts > 1 {
		n += 2 * (parts - 1)
	}
	return n
}

// renderContent joins header content and non-blank block content with
// "\n\n". Blank blocks are never rendered into chunk bodies; blank-run
// provenance lives only in the block stream, never in a rendered chunk
// (blank lines are trivial for the line-recall invariant).
func renderContent(header *block.Block, blocks []block.Block) string {
	var parts []string
	if header != nil {
		parts = append(parts, header.Content)
	}
	for _, b := range blocks {
		if b.Kind == block.KindBlank {
			continue
		}
		parts = append(parts, b.Content)
	}
	return strings.Join(parts, "\n\n")
}

func allBlank(blocks []block.Block) bool {
	for _, b := range blocks {
		if b.Kind != block.KindBlank {
			return false
		}
	}
	return true
}

func oversizeReasonFor(k block.Kind) string {
	switch k {
	case block.KindCode:
		return OversizeCodeBlockIntegrity
	case block.KindTable:
		return OversizeTableIntegrity
	default:
		return OversizeAtomicBlock
	}
}

// packBlocksGreedy implements §4.3 step 3: single-pass greedy block packing
// with the header (if any) attached only to the first emitted chunk.
func packBlocksGreedy(header *block.Block, blocks []block.Block, path []string, cfg config.ChunkConfig, strategyName string, variant packVariant) []Chunk {
	var chunks []Chunk
	var buffer []block.Block
	currentHeader := header

	flush := func() {
		if len(buffer) == 0 && currentHeader == nil {
			return
		}
		chunks = append(chunks, buildChunk(currentHeader, buffer, path, cfg, strategyName, false, ""))
		buffer = nil
		currentHeader = nil
	}

	for i := 0; i < len(blocks); i++ {
		b := blocks[i]
		if b.Kind == block.KindBlank {
			buffer = append(buffer, b)
			continue
		}

		trial := append(append([]block.Block{}, buffer...), b)
		if estimateSize(currentHeader, trial) <= cfg.MaxChunkSize {
			buffer = trial
			continue
		}

		if variant == variantCodeAffinity && b.Kind == block.KindCode && !allBlank(buffer) {
			if float64(estimateSize(currentHeader, trial)) <= float64(cfg.MaxChunkSize)*codeAffinityTolerance {
				chunks = append(chunks, buildChunk(currentHeader, trial, path, cfg, strategyName, true, OversizeCodeBlockIntegrity))
				buffer = nil
				currentHeader = nil
				continue
			}
		}

		if len(buffer) == 0 || allBlank(buffer) {
			if !b.IsSplittable() {
				chunks = append(chunks, buildChunk(currentHeader, append(append([]block.Block{}, buffer...), b), path, cfg, strategyName, true, oversizeReasonFor(b.Kind)))
				buffer = nil
				currentHeader = nil
				continue
			}
			headerForSub := currentHeader
			currentHeader = nil
			buffer = nil
			if b.Kind == block.KindList {
				chunks = append(chunks, subSplitList(headerForSub, b, path, cfg, strategyName)...)
			} else {
				chunks = append(chunks, subSplitParagraph(headerForSub, b, path, cfg, strategyName)...)
			}
			continue
		}

		flush()
		i--
	}
	flush()
	return chunks
}

// buildChunk materializes a Chunk from a header and a buffer of blocks.
func buildChunk(header *block.Block, buffer []block.Block, path []string, cfg config.ChunkConfig, strategyName string, oversize bool, oversizeReason string) Chunk {
	content := renderContent(header, buffer)

	var ids []string
	var ownBlocks []block.Block
	startLine, endLine, startOffset, endOffset := 0, 0, 0, 0
	first := true
	if header != nil {
		ids = append(ids, header.ID)
		ownBlocks = append(ownBlocks, *header)
		startLine, endLine = header.StartLine, header.EndLine
		startOffset, endOffset = header.StartOffset, header.EndOffset
		first = false
	}
	hasCode, hasTable, hasList, hasLinks := false, false, false, header != nil && header.HasLinks
	for _, b := range buffer {
		ids = append(ids, b.ID)
		ownBlocks = append(ownBlocks, b)
		if first {
			startLine, startOffset = b.StartLine, b.StartOffset
			first = false
		} else if b.StartLine < startLine {
			startLine, startOffset = b.StartLine, b.StartOffset
		}
		if b.EndLine > endLine {
			endLine, endOffset = b.EndLine, b.EndOffset
		}
		switch b.Kind {
		case block.KindCode:
			hasCode = true
		case block.KindTable:
			hasTable = true
		case block.KindList:
			hasList = true
		}
		if b.HasLinks {
			hasLinks = true
		}
	}

	var headerLevel int
	var headerText string
	if header != nil && header.Header != nil {
		headerLevel = header.Header.Level
		headerText = header.Header.Text
	}

	return Chunk{
		Content:     content,
		StartLine:   startLine,
		EndLine:     endLine,
		StartOffset: startOffset,
		EndOffset:   endOffset,
		Blocks:      ownBlocks,
		Metadata: Metadata{
			Strategy:       strategyName,
			ContentType:    contentTypeOf(buffer),
			SectionPath:    append([]string{}, path...),
			HeaderLevel:    headerLevel,
			HeaderText:     headerText,
			BlockIDs:       ids,
			HasCode:        hasCode,
			HasTable:       hasTable,
			HasList:        hasList,
			HasLinks:       hasLinks,
			AllowOversize:  oversize,
			OversizeReason: oversizeReason,
		},
	}
}

func contentTypeOf(blocks []block.Block) string {
	hasTable, hasCode, hasList := false, false, false
	for _, b := range blocks {
		switch b.Kind {
		case block.KindTable:
			hasTable = true
		case block.KindCode:
			hasCode = true
		case block.KindList:
			hasList = true
		}
	}
	switch {
	case hasTable:
		return "table"
	case hasCode:
		return "code"
	case hasList:
		return "list"
	default:
		return "text"
	}
}

// --- Sub-splitting of oversize splittable blocks ------------------------

// subSplitParagraph sentence-splits an oversize paragraph/blockquote block,
// greedily packing sentences while preserving exact source offsets.
func subSplitParagraph(header *block.Block, b block.Block, path []string, cfg config.ChunkConfig, strategyName string) []Chunk {
	spans := sentenceByteSpans(b.Content)
	if len(spans) == 0 {
		return []Chunk{buildChunk(header, []block.Block{b}, path, cfg, strategyName, true, OversizeAtomicBlock)}
	}

	var chunks []Chunk
	groupStart := 0
	prevEnd := 0
	hdr := header
	for _, sp := range spans {
		candidate := utf8.RuneCountInString(b.Content[groupStart:sp.end])
		if candidate > cfg.MaxChunkSize && sp.start > groupStart {
			chunks = append(chunks, textSpanChunk(hdr, b, groupStart, prevEnd, path, cfg, strategyName))
			hdr = nil
			groupStart = sp.start
		}
		prevEnd = sp.end
	}
	chunks = append(chunks, textSpanChunk(hdr, b, groupStart, prevEnd, path, cfg, strategyName))
	return chunks
}

func textSpanChunk(header *block.Block, b block.Block, localStart, localEnd int, path []string, cfg config.ChunkConfig, strategyName string) Chunk {
	content := b.Content[localStart:localEnd]
	size := utf8.RuneCountInString(content)
	oversize := size > cfg.MaxChunkSize

	startLine := b.StartLine + strings.Count(b.Content[:localStart], "\n")
	endLine := b.StartLine + strings.Count(b.Content[:localEnd], "\n")
	absStart := b.StartOffset + localStart
	absEnd := b.StartOffset + localEnd

	var ids []string
	if header != nil {
		ids = append(ids, header.ID)
		if header.StartLine < startLine {
			startLine = header.StartLine
			absStart = header.StartOffset
		}
	}
	ids = append(ids, b.ID)

	var ownBlocks []block.Block
	if header != nil {
		content = header.Content + "\n\n" + content
		ownBlocks = append(ownBlocks, *header)
	}
	spanBlock := b
	spanBlock.Content = b.Content[localStart:localEnd]
	spanBlock.Size = size
	ownBlocks = append(ownBlocks, spanBlock)

	reason := ""
	if oversize {
		reason = OversizeAtomicBlock
	}

	var headerLevel int
	var headerText string
	if header != nil && header.Header != nil {
		headerLevel = header.Header.Level
		headerText = header.Header.Text
	}

	return Chunk{
		Content:     content,
		StartLine:   startLine,
		EndLine:     endLine,
		StartOffset: absStart,
		EndOffset:   absEnd,
		Blocks:      ownBlocks,
		Metadata: Metadata{
			Strategy:       strategyName,
			ContentType:    contentTypeOf([]block.Block{b}),
			SectionPath:    append([]string{}, path...),
			HeaderLevel:    headerLevel,
			HeaderText:     headerText,
			BlockIDs:       ids,
			HasLinks:       b.HasLinks,
			AllowOversize:  oversize,
			OversizeReason: reason,
		},
	}
}

type byteSpan struct{ start, end int }

// sentenceByteSpans partitions content into contiguous byte spans at
// sentence boundaries (the final span reaches len(content)), so grouping
// spans never loses or duplicates a byte of the original block.
func sentenceByteSpans(content string) []byteSpan {
	locs := textutil.SentenceBoundary.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		if strings.TrimSpace(content) == "" {
			return nil
		}
		return []byteSpan{{0, len(content)}}
	}
	var out []byteSpan
	start := 0
	for _, loc := range locs {
		out = append(out, byteSpan{start, loc[1]})
		start = loc[1]
	}
	if start < len(content) {
		out = append(out, byteSpan{start, len(content)})
	}
	return out
}

func lineByteOffsets(lines []string) []int {
	offsets := make([]int, len(lines)+1)
	for i, ln := range lines {
		offsets[i+1] = offsets[i] + len(ln) + 1
	}
	return offsets
}

// subSplitList splits an oversize list block at top-level item boundaries,
// never mid-item, greedily grouping consecutive items under the size
// budget.
func subSplitList(header *block.Block, b block.Block, path []string, cfg config.ChunkConfig, strategyName string) []Chunk {
	lines := strings.Split(b.Content, "\n")
	offsets := lineByteOffsets(lines)

	firstIndent := -1
	var itemStartIdx []int
	for i, ln := range lines {
		if block.IsListItemStart(ln) {
			indent := block.LeadingSpaces(ln)
			if firstIndent == -1 {
				firstIndent = indent
			}
			if indent <= firstIndent {
				itemStartIdx = append(itemStartIdx, i)
			}
		}
	}
	if len(itemStartIdx) == 0 {
		itemStartIdx = []int{0}
	}
	itemStartIdx = append(itemStartIdx, len(lines))

	var chunks []Chunk
	groupStartLine := itemStartIdx[0]
	hdr := header
	for i := 0; i < len(itemStartIdx)-1; i++ {
		itemEndLine := itemStartIdx[i+1]
		candidateStart := offsets[groupStartLine]
		candidateEnd := lastNonEmptyOffset(offsets, lines, itemEndLine)
		candidateSize := utf8.RuneCountInString(b.Content[candidateStart:candidateEnd])

		if candidateSize > cfg.MaxChunkSize && itemStartIdx[i] > groupStartLine {
			prevEnd := lastNonEmptyOffset(offsets, lines, itemStartIdx[i])
			chunks = append(chunks, lineRangeChunk(hdr, b, lines, offsets, groupStartLine, itemStartIdx[i], prevEnd, path, cfg, strategyName))
			hdr = nil
			groupStartLine = itemStartIdx[i]
		}
	}
	endOffset := lastNonEmptyOffset(offsets, lines, len(lines))
	chunks = append(chunks, lineRangeChunk(hdr, b, lines, offsets, groupStartLine, len(lines), endOffset, path, cfg, strategyName))
	return chunks
}

func lastNonEmptyOffset(offsets []int, lines []string, endLineExclusive int) int {
	if endLineExclusive <= 0 {
		return 0
	}
	last := endLineExclusive - 1
	return offsets[last] + len(lines[last])
}

func lineRangeChunk(header *block.Block, b block.Block, lines []string, offsets []int, startLineIdx, endLineIdxExclusive, endOffsetLocal int, path []string, cfg config.ChunkConfig, strategyName string) Chunk {
	startOffsetLocal := offsets[startLineIdx]
	content := b.Content[startOffsetLocal:endOffsetLocal]
	size := utf8.RuneCountInString(content)
	oversize := size > cfg.MaxChunkSize

	startLine := b.StartLine + startLineIdx
	endLine := b.StartLine + endLineIdxExclusive - 1
	absStart := b.StartOffset + startOffsetLocal
	absEnd := b.StartOffset + endOffsetLocal

	var ids []string
	var ownBlocks []block.Block
	if header != nil {
		ids = append(ids, header.ID)
		if header.StartLine < startLine {
			startLine = header.StartLine
			absStart = header.StartOffset
		}
		content = header.Content + "\n\n" + content
		ownBlocks = append(ownBlocks, *header)
	}
	ids = append(ids, b.ID)
	spanBlock := b
	spanBlock.Content = b.Content[startOffsetLocal:endOffsetLocal]
	spanBlock.Size = size
	ownBlocks = append(ownBlocks, spanBlock)

	reason := ""
	if oversize {
		reason = OversizeAtomicBlock
	}

	var headerLevel int
	var headerText string
	if header != nil && header.Header != nil {
		headerLevel = header.Header.Level
		headerText = header.Header.Text
	}

	return Chunk{
		Content:     content,
		StartLine:   startLine,
		EndLine:     endLine,
		StartOffset: absStart,
		EndOffset:   absEnd,
		Blocks:      ownBlocks,
		Metadata: Metadata{
			Strategy:       strategyName,
			ContentType:    "list",
			SectionPath:    append([]string{}, path...),
			HeaderLevel:    headerLevel,
			HeaderText:     headerText,
			BlockIDs:       ids,
			HasList:        true,
			HasLinks:       b.HasLinks,
			AllowOversize:  oversize,
			OversizeReason: reason,
		},
	}
}
