package service

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
	On    bool     `json:"on"`
}

func TestStoreFallbackWhenMissing(t *testing.T) {
	s := newTestStore(t)
	fallback := sample{Name: "fallback"}
	assert.Equal(t, fallback, Get(context.Background(), s, "default", "never-set", fallback))
}

func TestStoreFallbackWhenCorrupt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.repo.Set(ctx, "default", "notes", "{not json"))

	got := Get(ctx, s, "default", "notes", []string{"x"})
	assert.Equal(t, []string{"x"}, got)
}

func TestStoreRoundTripProperty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("set then get returns an equal value", prop.ForAll(
		func(name string, count int, tags []string, on bool) bool {
			if tags == nil {
				tags = []string{}
			}
			v := sample{Name: name, Count: count, Tags: tags, On: on}
			if err := Set(ctx, s, "prop", "sample", v); err != nil {
				return false
			}
			got := Get(ctx, s, "prop", "sample", sample{})
			return assert.ObjectsAreEqual(v, got)
		},
		gen.AlphaString(),
		gen.Int(),
		gen.SliceOf(gen.AlphaString()),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
