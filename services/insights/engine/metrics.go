package engine

import (
	"fmt"
	"sort"

	"github.com/denster32/health-insights/services/insights/config"
)

// Reduction is the per-metric function collapsing all samples in a bucket to one value
type Reduction string

const (
	// ReductionMean is the arithmetic mean of the kept values
	ReductionMean Reduction = "mean"
	// ReductionLastValue keeps the value of the sample with the greatest timestamp
	ReductionLastValue Reduction = "lastValue"
	// ReductionSum adds the kept values
	ReductionSum Reduction = "sum"
	// ReductionMin keeps the smallest value
	ReductionMin Reduction = "min"
	// ReductionMax keeps the greatest value
	ReductionMax Reduction = "max"
)

// MetricDefinition is the static per-metric configuration, immutable after engine construction
type MetricDefinition struct {
	ID          string
	DisplayUnit string
	Reduction   Reduction
	MinValid    float64
	MaxValid    float64
}

// inDomain reports whether a value can contribute to aggregation for this metric
func (md MetricDefinition) inDomain(value float64) bool {
	return value >= md.MinValid && value <= md.MaxValid
}

// metricRegistry resolves requested metric ids against the known definitions.
// Read-only after construction, safe for concurrent use.
type metricRegistry struct {
	definitions map[string]MetricDefinition
}

func newMetricRegistry(metricConfigs []config.MetricConfig) (*metricRegistry, error) {
	definitions := make(map[string]MetricDefinition, len(metricConfigs))
	for _, mc := range metricConfigs {
		reduction := Reduction(mc.Reduction)
		switch reduction {
		case ReductionMean, ReductionLastValue, ReductionSum, ReductionMin, ReductionMax:
		default:
			return nil, fmt.Errorf("%w: '%s' for metric %s", ErrInvalidReduction, mc.Reduction, mc.ID)
		}
		if mc.MinValid > mc.MaxValid {
			return nil, fmt.Errorf("invalid domain for metric %s: MinValid > MaxValid", mc.ID)
		}

		definitions[mc.ID] = MetricDefinition{
			ID:          mc.ID,
			DisplayUnit: mc.DisplayUnit,
			Reduction:   reduction,
			MinValid:    mc.MinValid,
			MaxValid:    mc.MaxValid,
		}
	}

	return &metricRegistry{
		definitions: definitions,
	}, nil
}

// resolve maps the requested ids to their definitions, deduplicated and in
// lexicographic order so the cache key is stable regardless of caller ordering
func (registry *metricRegistry) resolve(requestedIDs []string) ([]MetricDefinition, error) {
	seen := make(map[string]struct{}, len(requestedIDs))
	resolved := make([]MetricDefinition, 0, len(requestedIDs))
	for _, id := range requestedIDs {
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}

		definition, found := registry.definitions[id]
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, id)
		}

		resolved = append(resolved, definition)
	}

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].ID < resolved[j].ID
	})

	return resolved, nil
}

// allDefinitions returns every registered definition in lexicographic id order
func (registry *metricRegistry) allDefinitions() []MetricDefinition {
	all := make([]MetricDefinition, 0, len(registry.definitions))
	for _, definition := range registry.definitions {
		all = append(all, definition)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID < all[j].ID
	})

	return all
}
