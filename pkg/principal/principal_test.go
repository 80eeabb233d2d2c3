package principal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motusllc/rancherprojectmanager/pkg/pkgerrors"
)

func TestFromResponse_Success(t *testing.T) {
	p, err := FromResponse("test", map[string]interface{}{
		"id":            "u-1",
		"principalType": "user",
		"name":          "alex",
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.ID)
	assert.False(t, p.IsGroup())
}

func TestFromResponse_GroupType(t *testing.T) {
	p, err := FromResponse("test", map[string]interface{}{
		"id":            "g-1",
		"principalType": "group",
		"name":          "team",
	})
	require.NoError(t, err)
	assert.True(t, p.IsGroup())
}

func TestFromResponse_MissingFieldIsMissingKey(t *testing.T) {
	_, err := FromResponse("test", map[string]interface{}{
		"id":   "u-1",
		"name": "alex",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.MissingKey))
}

func TestSet_Difference(t *testing.T) {
	desired := NewSet([]Principal{
		{ID: "u-1", Name: "alex"},
		{ID: "u-2", Name: "sally"},
	})
	observed := NewSet([]Principal{
		{ID: "u-1", Name: "alex"},
		{ID: "u-3", Name: "jane"},
	})

	additions := desired.Difference(observed)
	removals := observed.Difference(desired)

	require.Len(t, additions, 1)
	assert.Equal(t, "u-2", additions[0].ID)
	require.Len(t, removals, 1)
	assert.Equal(t, "u-3", removals[0].ID)
}

func TestSet_DifferenceDeterministicOrder(t *testing.T) {
	desired := NewSet([]Principal{
		{ID: "u-3"}, {ID: "u-1"}, {ID: "u-2"},
	})
	additions := desired.Difference(NewSet(nil))
	require.Len(t, additions, 3)
	assert.Equal(t, []string{"u-1", "u-2", "u-3"}, []string{additions[0].ID, additions[1].ID, additions[2].ID})
}
