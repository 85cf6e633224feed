package embedding

import (
	"context"
	"fmt"

	"github.com/boshu2/lyra/internal/worker"
)

// PhraseCatalog maps an intent to the example phrases BuildIntentVectors
// encodes, one IntentVector per phrase.
type PhraseCatalog map[string][]string

// BuildIntentVectors encodes every phrase in catalog and returns one
// IntentVector per phrase (an intent with N phrases contributes N
// vectors, so Classify's nearest-match scan can match against whichever
// phrasing is closest). Phrases are encoded concurrently via a worker
// pool — with a large catalog this turns encoder startup from a serial
// wall of calls into a fan-out bounded by CPU count.
func BuildIntentVectors(ctx context.Context, encoder Encoder, catalog PhraseCatalog) ([]IntentVector, error) {
	type pair struct {
		intent string
		phrase string
	}

	var pairs []pair
	for intent, phrases := range catalog {
		for _, phrase := range phrases {
			pairs = append(pairs, pair{intent, phrase})
		}
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	phrases := make([]string, len(pairs))
	for i, p := range pairs {
		phrases[i] = p.phrase
	}

	pool := worker.NewPool[[]float64](0)
	results := pool.Process(phrases, func(phrase string) ([]float64, error) {
		return encoder.Encode(ctx, phrase)
	})

	vectors := make([]IntentVector, 0, len(results))
	for i, r := range results {
		if r.Err != nil {
			return nil, fmt.Errorf("encode phrase %q for intent %q: %w", pairs[i].phrase, pairs[i].intent, r.Err)
		}
		vectors = append(vectors, IntentVector{Intent: pairs[i].intent, Vector: r.Value})
	}
	return vectors, nil
}
