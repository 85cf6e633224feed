package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIntentVectors_EncodesEveryPhrase(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{
		"delete this file":  {1, 0},
		"trash this":        {0.9, 0.1},
		"open chrome":       {0, 1},
	}}
	catalog := PhraseCatalog{
		"delete_file": {"delete this file", "trash this"},
		"launch_app":  {"open chrome"},
	}

	vectors, err := BuildIntentVectors(context.Background(), enc, catalog)
	require.NoError(t, err)
	assert.Len(t, vectors, 3)

	byIntent := map[string]int{}
	for _, v := range vectors {
		byIntent[v.Intent]++
	}
	assert.Equal(t, 2, byIntent["delete_file"])
	assert.Equal(t, 1, byIntent["launch_app"])
}

func TestBuildIntentVectors_EmptyCatalogReturnsNil(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{}}
	vectors, err := BuildIntentVectors(context.Background(), enc, PhraseCatalog{})
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

type erroringEncoder struct{}

func (erroringEncoder) Encode(ctx context.Context, text string) ([]float64, error) {
	return nil, errors.New("encoder unavailable")
}

func TestBuildIntentVectors_PropagatesEncodeError(t *testing.T) {
	_, err := BuildIntentVectors(context.Background(), erroringEncoder{}, PhraseCatalog{
		"delete_file": {"delete this file"},
	})
	assert.Error(t, err)
}
