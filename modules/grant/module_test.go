package grant

import (
	"testing"

	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/mutator"
	"github.com/specialistvlad/charsmith/internal/objcache"
	"github.com/specialistvlad/charsmith/internal/rulepath"
	"github.com/specialistvlad/charsmith/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(Input{})
	assert.Error(t, err)
	_, err = New(Input{IDs: []string{"x"}, Kind: "planet"})
	assert.Error(t, err)
}

func TestGrant_InsertsReferenceOnInsert(t *testing.T) {
	ctx, _ := testutil.Context(t)
	agg := character.New("hero", character.Persistent{}, nil, mutator.OrderingComparator)
	at := rulepath.Root().Indexed("classes", 0).Child("fighter")

	m, err := New(Input{IDs: []string{"martial", "fighting_style"}, AsParentFeature: true})
	require.NoError(t, err)

	m.Apply(ctx, agg, at)
	assert.False(t, agg.Objects.HasPending(), "apply does nothing")

	m.OnInsert(ctx, agg, at)
	assert.Equal(t, []objcache.Reference{{
		IDs:                      []string{"martial", "fighting_style"},
		Kind:                     content.KindBundle,
		SourcePath:               at,
		PropagateAsParentFeature: true,
	}}, agg.Objects.Pending())
}
