package quota

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryValidation(t *testing.T) {
	valid := EndpointSpec{
		Endpoint: "GET_rest_posts",
		ByTier:   map[Tier]Limits{TierStandard: {PerHour: 100}},
	}

	t.Run("accepts a valid table", func(t *testing.T) {
		r, err := NewRegistry(valid)
		require.NoError(t, err)

		spec, ok := r.Lookup("GET_rest_posts")
		require.True(t, ok)
		assert.Equal(t, 100, spec.ByTier[TierStandard].PerHour)
	})

	t.Run("rejects empty endpoint id", func(t *testing.T) {
		_, err := NewRegistry(EndpointSpec{ByTier: map[Tier]Limits{TierStandard: {PerHour: 1}}})
		assert.Error(t, err)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := NewRegistry(valid, valid)
		assert.Error(t, err)
	})

	t.Run("rejects negative limits", func(t *testing.T) {
		_, err := NewRegistry(EndpointSpec{
			Endpoint: "DELETE_rest_posts",
			ByTier:   map[Tier]Limits{TierStandard: {PerHour: -1}},
		})
		assert.Error(t, err)
	})

	t.Run("rejects a tier with no limits at all", func(t *testing.T) {
		_, err := NewRegistry(EndpointSpec{
			Endpoint: "DELETE_rest_posts",
			ByTier:   map[Tier]Limits{TierStandard: {}},
		})
		assert.Error(t, err)
	})
}

func TestLookupMissing(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, ok := r.Lookup("CREATE_rest_posts")
	assert.False(t, ok)
}

func TestLinkedInRegistry(t *testing.T) {
	r := LinkedInRegistry()

	spec, ok := r.Lookup("CREATE_rest_posts")
	require.True(t, ok)
	assert.Equal(t, 250, spec.ByTier[TierStandard].PerHour)

	// every registered endpoint has limits for both tiers
	for _, id := range r.Endpoints() {
		spec, ok := r.Lookup(id)
		require.True(t, ok, id)
		assert.Contains(t, spec.ByTier, TierStandard, id)
		assert.Contains(t, spec.ByTier, TierPartner, id)
	}
}
