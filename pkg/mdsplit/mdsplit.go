// Package mdsplit is the public entry point to the chunking pipeline:
// extraction, section-tree construction, strategy dispatch, post-processing,
// overlap, optional hierarchy, and rendering, wired together behind both a
// plain Go function and a parameter-map envelope for callers that want the
// warnings-alongside-a-partial-result shape.
package mdsplit

import (
	"strings"

	"go.uber.org/zap"

	"github.com/hsn0918/mdsplit/internal/block"
	"github.com/hsn0918/mdsplit/internal/chunker"
	"github.com/hsn0918/mdsplit/internal/chunkerrors"
	"github.com/hsn0918/mdsplit/internal/config"
	"github.com/hsn0918/mdsplit/internal/hierarchy"
	"github.com/hsn0918/mdsplit/internal/logging"
	"github.com/hsn0918/mdsplit/internal/overlap"
	"github.com/hsn0918/mdsplit/internal/postprocess"
	"github.com/hsn0918/mdsplit/internal/render"
	"github.com/hsn0918/mdsplit/internal/section"
	"github.com/hsn0918/mdsplit/internal/textutil"
	"github.com/hsn0918/mdsplit/internal/validate"
)

// Chunk is the pipeline's structured result, re-exported so callers that
// want the full metadata shape don't need to import an internal package.
type Chunk = chunker.Chunk

// Response mirrors the original adapter's success/error envelope: rendered
// chunk strings alongside any warnings accumulated along the way, or a
// single failure-kind string on an unrecoverable error.
type Response struct {
	Chunks   []string
	Warnings []string
	Errors   []string
}

// Chunk runs the pipeline and returns the structured chunk set, the plain Go
// idiom for callers that don't need the string-rendering envelope.
func Chunk(text string, cfg config.ChunkConfig) ([]chunker.Chunk, []string, error) {
	chunks, _, warnings, err := runCore(text, cfg)
	return chunks, warnings, err
}

// runCore performs every pipeline stage shared by Chunk and Invoke:
// extraction through overlap computation. It also returns the section tree,
// which Invoke needs afterward to build hierarchical nodes.
func runCore(text string, cfg config.ChunkConfig) ([]chunker.Chunk, []*section.Section, []string, error) {
	source := textutil.NormalizeLineEndings(text)
	if strings.TrimSpace(source) == "" {
		return nil, nil, nil, chunkerrors.NewEmptyInput()
	}

	blocks, err := block.Extract(source, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	roots := section.Build(blocks, cfg)

	registry := chunker.NewRegistry()
	chunks, warnings, err := chunker.Dispatch(source, roots, blocks, cfg, registry)
	if err != nil {
		return nil, roots, warnings, err
	}

	chunks = postprocess.Normalize(chunks, cfg)
	if err := postprocess.ValidateHeaderPaths(chunks); err != nil {
		return nil, roots, warnings, err
	}

	overlap.Compute(chunks, cfg)

	if cfg.ValidateInvariants {
		result, err := validate.Completeness(source, chunks, cfg)
		if err != nil {
			return nil, roots, warnings, err
		}
		warnings = append(warnings, result.Warnings...)
	}

	return chunks, roots, warnings, nil
}

// Options carries the entry-point-level flags that govern output shape but
// not chunking itself: whether metadata or legacy rendering is used, and
// whether/how hierarchical root and internal-node chunks are emitted.
type Options struct {
	IncludeMetadata bool
	Hierarchy       hierarchy.Options
}

// DefaultOptions mirrors the entry point's documented field defaults.
func DefaultOptions() Options {
	return Options{IncludeMetadata: true}
}

// Invoke decodes params into a ChunkConfig and Options, runs the pipeline,
// and renders the result to the caller-facing string list, matching the
// "tool invoke" shape: a parameter map in, a warnings-and-errors envelope
// out, never a raw exception.
func Invoke(params map[string]any) Response {
	cfg, opts, err := decode(params)
	if err != nil {
		return Response{Errors: []string{err.Error()}}
	}

	text, _ := params["input_text"].(string)

	chunks, roots, warnings, err := runCore(text, cfg)
	if err != nil {
		return Response{Errors: []string{err.Error()}, Warnings: warnings}
	}

	chunks = hierarchy.Build(chunks, roots, opts.Hierarchy)
	if err := postprocess.ValidateHeaderPaths(chunks); err != nil {
		logging.Get().Warn("post-hierarchy header path validation failed", zap.Error(err))
	}

	renderCfg := cfg
	if !opts.IncludeMetadata {
		renderCfg.OverlapMode = config.OverlapModeLegacy
	} else {
		renderCfg.OverlapMode = config.OverlapModeMetadata
	}

	rendered, err := render.Render(chunks, renderCfg)
	if err != nil {
		return Response{Errors: []string{err.Error()}, Warnings: warnings}
	}

	return Response{Chunks: rendered, Warnings: warnings}
}

// decode splits the flat entry-point parameter map into the immutable
// ChunkConfig the core pipeline consumes and the output-shaping Options,
// translating the entry point's public field names (chunk_overlap, strategy)
// onto ChunkConfig's internal mapstructure tags (overlap_size,
// strategy_override) before delegating to config.DecodeParams.
func decode(params map[string]any) (config.ChunkConfig, Options, error) {
	opts := DefaultOptions()
	if params == nil {
		cfg, err := config.DecodeParams(nil)
		return cfg, opts, err
	}

	translated := make(map[string]any, len(params))
	for k, v := range params {
		translated[k] = v
	}
	if v, ok := translated["chunk_overlap"]; ok {
		if _, already := translated["overlap_size"]; !already {
			translated["overlap_size"] = v
		}
	}
	if v, ok := translated["strategy"]; ok {
		if _, already := translated["strategy_override"]; !already {
			translated["strategy_override"] = v
		}
	}

	if v, ok := params["include_metadata"].(bool); ok {
		opts.IncludeMetadata = v
	}
	if v, ok := params["enable_hierarchy"].(bool); ok {
		opts.Hierarchy.EnableHierarchy = v
	}
	if v, ok := params["debug"].(bool); ok {
		opts.Hierarchy.Debug = v
	}
	if v, ok := params["leaf_only"].(bool); ok {
		opts.Hierarchy.LeafOnly = v
	}

	cfg, err := config.DecodeParams(translated)
	return cfg, opts, err
}
