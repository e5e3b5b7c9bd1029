// Package hierarchy implements the entry point's optional hierarchical
// output mode: synthesizing internal-node and root chunks above the leaf
// chunks the structural chunker produces, and filtering the combined set
// back down per the caller's enable_hierarchy/leaf_only/debug options.
package hierarchy

import (
	"unicode/utf8"

	"github.com/hsn0918/mdsplit/internal/block"
	"github.com/hsn0918/mdsplit/internal/chunker"
	"github.com/hsn0918/mdsplit/internal/section"
)

// indexableMinChars is the literal 100-character threshold a non-leaf
// internal chunk's content must reach to be considered indexable, carried
// over unchanged rather than re-derived from min_chunk_size or any other
// configurable budget.
const indexableMinChars = 100

// Options carries the three entry-point-level flags that govern
// hierarchical output. These live outside ChunkConfig because they govern
// what the entry point returns, not how the core chunks the document --
// ChunkConfig stays the single immutable value threaded through chunking
// itself.
type Options struct {
	EnableHierarchy bool
	LeafOnly        bool
	Debug           bool
}

// FillDefaults applies the input-validation defaulting rule to every leaf
// chunk the chunker produced, regardless of whether hierarchical mode is in
// play: a chunk with no opinion on is_leaf/is_root is leaf content that
// isn't the synthetic root.
func FillDefaults(chunks []chunker.Chunk) {
	for i := range chunks {
		chunks[i].Metadata.IsLeaf = true
		chunks[i].Metadata.IsRoot = false
	}
}

// Build augments leafChunks with internal-node and root chunks derived from
// the section tree when opts.EnableHierarchy is set, then applies the
// output filter. With hierarchy disabled it only fills is_leaf/is_root
// defaults and returns leafChunks unchanged in count and order.
func Build(leafChunks []chunker.Chunk, roots []*section.Section, opts Options) []chunker.Chunk {
	FillDefaults(leafChunks)

	if !opts.EnableHierarchy {
		return leafChunks
	}

	all := make([]chunker.Chunk, 0, len(leafChunks)+len(roots)+1)
	all = append(all, leafChunks...)

	var rootParts []string
	section.Walk(roots, func(s *section.Section) {
		content := flattenSubtree(s)
		if content == "" {
			return
		}
		rootParts = append(rootParts, content)
		all = append(all, internalNodeChunk(s, content))
	})

	all = append(all, rootChunk(rootParts))

	return filter(all, opts)
}

func internalNodeChunk(s *section.Section, content string) chunker.Chunk {
	return chunker.Chunk{
		Content:   content,
		StartLine: s.StartLine,
		EndLine:   s.EndLine,
		Metadata: chunker.Metadata{
			Strategy:    "hierarchy",
			ContentType: "section",
			SectionPath: append([]string{}, s.Path...),
			HeaderLevel: s.Level(),
			IsLeaf:      false,
			IsRoot:      false,
			Indexable:   utf8.RuneCountInString(content) >= indexableMinChars,
		},
	}
}

func rootChunk(parts []string) chunker.Chunk {
	content := ""
	for i, p := range parts {
		if i > 0 {
			content += "\n\n"
		}
		content += p
	}
	return chunker.Chunk{
		Content: content,
		Metadata: chunker.Metadata{
			Strategy:    "hierarchy",
			ContentType: "document",
			IsLeaf:      false,
			IsRoot:      true,
			Indexable:   false,
		},
	}
}

// flattenSubtree reconstructs a section's own header plus every descendant
// block's content, joined by blank lines. Descendant sections' header lines
// are not included, unlike the structural chunker's whole-subtree rendering.
func flattenSubtree(s *section.Section) string {
	var out string
	if s.Header != nil {
		out = s.Header.Content
	}
	return flattenSectionRecursive(s, out)
}

func flattenSectionRecursive(s *section.Section, acc string) string {
	for _, b := range s.Blocks {
		if b.Kind == block.KindBlank {
			continue
		}
		if acc != "" {
			acc += "\n\n"
		}
		acc += b.Content
	}
	for _, child := range s.Children {
		childText := flattenSectionRecursive(child, "")
		if childText == "" {
			continue
		}
		if acc != "" {
			acc += "\n\n"
		}
		acc += childText
	}
	return acc
}

// filter drops the synthetic root unless debug mode is requested, and
// narrows to is_leaf chunks when leaf_only is set.
func filter(chunks []chunker.Chunk, opts Options) []chunker.Chunk {
	out := make([]chunker.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if !opts.Debug && c.Metadata.IsRoot {
			continue
		}
		if opts.LeafOnly && !c.Metadata.IsLeaf {
			continue
		}
		out = append(out, c)
	}
	return out
}
