package chunker

import (
	"sort"

	"github.com/hsn0918/mdsplit/internal/chunkerrors"
	"github.com/hsn0918/mdsplit/internal/config"
	"github.com/hsn0918/mdsplit/internal/section"
)

// Strategy is the narrow capability set every packing strategy implements:
// whether it applies to a document's histogram, how confident it is that
// it's the right choice, and the packer itself.
type Strategy interface {
	Name() string
	CanHandle(analysis Analysis, cfg config.ChunkConfig) bool
	Quality(analysis Analysis) float64
	Apply(roots []*section.Section, cfg config.ChunkConfig) ([]Chunk, error)
}

// Registry maps strategy names to instances, in registration order, so the
// auto path can rank by quality among those that can handle the document.
type Registry struct {
	order []Strategy
	byName map[string]Strategy
}

// NewRegistry builds the default registry: structural, code, table, list,
// mixed, sentences.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Strategy)}
	r.Register(newStructuralStrategy())
	r.Register(newCodeStrategy())
	r.Register(newTableStrategy())
	r.Register(newListStrategy())
	r.Register(newMixedStrategy())
	r.Register(newSentencesStrategy())
	return r
}

func (r *Registry) Register(s Strategy) {
	r.order = append(r.order, s)
	r.byName[s.Name()] = s
}

func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Resolve picks the strategy to run for the given override name. "auto"
// ranks by Quality among strategies whose CanHandle returns true, breaking
// ties by registration order (stable sort). Any other name must be a
// registered strategy or StrategyNotFound is returned.
func (r *Registry) Resolve(name string, analysis Analysis, cfg config.ChunkConfig) (Strategy, error) {
	if name != config.StrategyAuto {
		s, ok := r.Get(name)
		if !ok {
			return nil, chunkerrors.NewStrategyNotFound(name)
		}
		return s, nil
	}

	var candidates []Strategy
	for _, s := range r.order {
		if s.CanHandle(analysis, cfg) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, chunkerrors.NewNoStrategyCanHandle()
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Quality(analysis) > candidates[j].Quality(analysis)
	})
	return candidates[0], nil
}
