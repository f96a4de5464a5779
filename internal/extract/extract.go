package extract

import (
	"fmt"
	"sort"

	"MediaScope/internal/domain"
	"MediaScope/internal/ports"
)

// Registry keeps the closed mapping from content families to their
// extractor implementations. Adding a family means registering one more
// extractor, not open dynamic dispatch.
type Registry struct {
	extractors map[domain.ContentFamily]ports.Extractor
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: map[domain.ContentFamily]ports.Extractor{}}
}

// Register adds or replaces the extractor for its family.
func (r *Registry) Register(e ports.Extractor) {
	if r.extractors == nil {
		r.extractors = map[domain.ContentFamily]ports.Extractor{}
	}
	r.extractors[e.Family()] = e
}

// Resolve returns the extractor for a family or an error if it is absent.
func (r *Registry) Resolve(family domain.ContentFamily) (ports.Extractor, error) {
	if e, ok := r.extractors[family]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("no extractor registered for family %s", family)
}

// rankPredictions clamps confidences into [0,1] and orders the list
// descending by confidence, ties broken by first-seen label order.
func rankPredictions(predictions []domain.Prediction) []domain.Prediction {
	ranked := make([]domain.Prediction, len(predictions))
	copy(ranked, predictions)
	for i := range ranked {
		if ranked[i].Confidence < 0 {
			ranked[i].Confidence = 0
		}
		if ranked[i].Confidence > 1 {
			ranked[i].Confidence = 1
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	return ranked
}
