package ports

import (
	"context"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

// FeatureOracle proposes candidate signals for surprising outcomes. It is
// the only long-latency dependency of the engine; callers bound it with a
// context deadline and fall back locally on any error.
type FeatureOracle interface {
	SuggestFeatures(ctx context.Context, traits domain.CreativeTraits, result domain.OutcomeResult, reason domain.DiscoveryReason) ([]domain.FeatureSuggestion, error)
}
