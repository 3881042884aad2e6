package playerregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreate_CreatesOnce(t *testing.T) {
	r := New()

	p1 := r.GetOrCreate("alice")
	p2 := r.GetOrCreate("alice")

	assert.Same(t, p1, p2)
}

func TestGetOrCreate_InitialRating(t *testing.T) {
	r := New()
	p := r.GetOrCreate("alice")
	assert.Equal(t, 1500.0, p.Rating())
}

func TestLookup_Miss(t *testing.T) {
	r := New()
	_, ok := r.Lookup("nobody")
	require.False(t, ok)
}

func TestLookup_Hit(t *testing.T) {
	r := New()
	created := r.GetOrCreate("alice")
	found, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, created, found)
}
