package slug

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Acme", "acme"},
		{"diacritics", "Café Aroma", "cafe-aroma"},
		{"portuguese", "Ação & Reação Ltda", "acao-reacao-ltda"},
		{"collapses repeats", "a  --  b", "a-b"},
		{"trims edges", "  -- hello --  ", "hello"},
		{"digits kept", "Studio 54", "studio-54"},
		{"empty", "", ""},
		{"symbols only", "@#$%", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Café Aroma", "Ação & Reação", "Studio 54", "cafe-aroma-1"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalizing %q twice must be stable", in)
	}
}

// takenSet fakes the store probe, counting how many candidates were checked
func takenSet(existing ...string) (TakenFunc, *int) {
	set := map[string]bool{}
	for _, s := range existing {
		set[s] = true
	}
	probes := 0
	return func(_ context.Context, candidate string) (bool, error) {
		probes++
		return set[candidate], nil
	}, &probes
}

func TestUniqueFreeSlugStays(t *testing.T) {
	taken, probes := takenSet()

	got, err := Unique(context.Background(), "cafe-aroma", taken)

	require.NoError(t, err)
	assert.Equal(t, "cafe-aroma", got)
	assert.Equal(t, 1, *probes)
}

func TestUniqueCollisionAppendsSuffix(t *testing.T) {
	taken, _ := takenSet("cafe-aroma")

	got, err := Unique(context.Background(), "cafe-aroma", taken)

	require.NoError(t, err)
	assert.Equal(t, "cafe-aroma-1", got)
}

func TestUniqueSuffixIncrements(t *testing.T) {
	taken, probes := takenSet("cafe-aroma", "cafe-aroma-1")

	got, err := Unique(context.Background(), "cafe-aroma", taken)

	require.NoError(t, err)
	assert.Equal(t, "cafe-aroma-2", got)
	assert.Equal(t, 3, *probes, "one probe per prior collision plus the free candidate")
}

// A rename excludes the row's own slug from the probe, the way the store's
// closure skips the row being updated, so an unchanged name keeps its slug.
func TestUniqueRenameKeepsOwnSlug(t *testing.T) {
	rows := map[string]uint{"cafe-aroma": 5, "cafe-aroma-1": 6}
	ownID := uint(5)
	taken := func(_ context.Context, candidate string) (bool, error) {
		id, ok := rows[candidate]
		return ok && id != ownID, nil
	}

	got, err := Unique(context.Background(), "cafe-aroma", taken)

	require.NoError(t, err)
	assert.Equal(t, "cafe-aroma", got)
}

func TestUniquePropagatesProbeError(t *testing.T) {
	probeErr := errors.New("connection refused")
	taken := func(_ context.Context, _ string) (bool, error) {
		return false, probeErr
	}

	_, err := Unique(context.Background(), "cafe-aroma", taken)
	assert.ErrorIs(t, err, probeErr)
}
