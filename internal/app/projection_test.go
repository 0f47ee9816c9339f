package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaakkos/brainstorm/internal/domain"
)

func TestProject_RowsAndOptionsFollowMirrorOrder(t *testing.T) {
	state := domain.NewAppState()
	m := state.Mirror(domain.CollectionTechnologies)
	m.Status = domain.MirrorPopulated
	m.Items = []domain.ReferenceItem{{ID: "1", Name: "Ansible"}, {ID: "2", Name: "Linux"}}
	m.LoadedAt = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	v := Project(state, 42)
	assert.Equal(t, uint64(42), v.Revision)
	require.Len(t, v.Collections, 2)

	cv, ok := v.Collection(domain.CollectionTechnologies)
	require.True(t, ok)
	assert.Equal(t, "Technologies", cv.Label)
	assert.Equal(t, []Option{{Value: "Ansible", Label: "Ansible"}, {Value: "Linux", Label: "Linux"}}, cv.Options)
	assert.Equal(t, []Row{{ID: "1", Name: "Ansible", Position: 1}, {ID: "2", Name: "Linux", Position: 2}}, cv.Rows)
	assert.Equal(t, "2026-05-06T07:08:09Z", cv.LoadedAt)

	tf, ok := v.Collection(domain.CollectionTeamFunctions)
	require.True(t, ok)
	assert.NotNil(t, tf.Rows)
	assert.Empty(t, tf.Rows)
	assert.Empty(t, tf.LoadedAt)
}

func TestProject_ErrorStateKeepsRows(t *testing.T) {
	state := domain.NewAppState()
	m := state.Mirror(domain.CollectionTeamFunctions)
	m.Status = domain.MirrorError
	m.Err = "connection refused"
	m.Items = []domain.ReferenceItem{{ID: "9", Name: "Backup"}}

	cv, _ := Project(state, 1).Collection(domain.CollectionTeamFunctions)
	assert.Equal(t, domain.MirrorError, cv.Status)
	assert.Equal(t, "connection refused", cv.Error)
	assert.Len(t, cv.Rows, 1)
}

func TestView_CollectionMissing(t *testing.T) {
	_, ok := View{}.Collection(domain.CollectionTechnologies)
	assert.False(t, ok)
}
