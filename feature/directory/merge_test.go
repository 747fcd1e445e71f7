package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAbsorbsDuplicateUnderNewKey(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// "Aiden Storm" was tracked first; the same character renamed to
	// "Aiden Gale" and was tracked again under the new key.
	older := newPlayer("Aiden Storm", 73)
	older.Notes = "met in Limsa"
	older.SeenCount = 10
	require.NoError(t, env.svc.Add(ctx, older))

	newer := newPlayer("Aiden Gale", 73)
	newer.ObjectID = 555
	newer.SeenCount = 2
	require.NoError(t, env.svc.Add(ctx, newer))
	newer.LastSeen = env.clock.Now()

	require.NoError(t, env.svc.Merge(ctx, older, newer.ID))

	// The canonical record keeps the older id under the newer identity.
	got, ok := env.svc.GetByKey("AIDEN_GALE_73")
	require.True(t, ok)
	assert.Same(t, older, got)
	assert.Equal(t, 1, got.ID)
	assert.Equal(t, "Aiden Gale", got.Name)
	assert.Equal(t, uint32(555), got.ObjectID)
	assert.Equal(t, 12, got.SeenCount)
	assert.Equal(t, "met in Limsa", got.Notes)

	// The old key no longer resolves and the duplicate id is gone.
	_, ok = env.svc.GetByKey("AIDEN_STORM_73")
	assert.False(t, ok)
	_, ok = env.svc.GetByID(2)
	assert.False(t, ok)

	_, total, err := env.svc.List(View{Kind: ViewAll}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestMergeRecordsChangeAndRehomesRelations(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	older := newPlayer("Aiden Storm", 73)
	older.Customize = []byte{1, 2, 3}
	require.NoError(t, env.svc.Add(ctx, older))
	newer := newPlayer("Aiden Gale", 73)
	newer.Customize = []byte{4, 5, 6}
	require.NoError(t, env.svc.Add(ctx, newer))

	require.NoError(t, env.svc.Merge(ctx, older, newer.ID))

	for _, call := range []string{
		"record_name_world 1 Aiden Gale/73",
		"record_customize 1",
		"reparent_name_world 2->1",
		"reparent_customize 2->1",
		"reparent_encounters 2->1",
		"delete_config 2",
		"delete_categories 2",
		"delete_tags 2",
		"delete_lodestone 2",
	} {
		assert.True(t, env.relations.called(call), call)
	}
	assert.Equal(t, []byte{4, 5, 6}, older.Customize)
	assert.Equal(t, 1, env.alerter.sentCount())
}

func TestMergeCarriesCurrentFlagToSurvivor(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	older := newPlayer("Aiden Storm", 73)
	require.NoError(t, env.svc.Add(ctx, older))
	newer := newPlayer("Aiden Gale", 73)
	newer.ObjectID = 555
	require.NoError(t, env.svc.Add(ctx, newer))
	require.NoError(t, env.svc.MarkCurrent(ctx, newer.ID, true))

	require.NoError(t, env.svc.Merge(ctx, older, newer.ID))

	assert.True(t, older.IsCurrent)
	players, total, err := env.svc.List(View{Kind: ViewCurrent}, 0, 10, "", "")
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Same(t, older, players[0])

	id, ok := env.tracker.CurrentPlayerID(555)
	require.True(t, ok)
	assert.Equal(t, older.ID, id)
}

func TestMergeMissingNewerIsNotFoundNoOp(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	older := newPlayer("Aiden Storm", 73)
	require.NoError(t, env.svc.Add(ctx, older))

	err := env.svc.Merge(ctx, older, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, ok := env.svc.GetByKey("AIDEN_STORM_73")
	assert.True(t, ok)
}

func TestMergeFailureLeavesBothRecordsEvicted(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	older := newPlayer("Aiden Storm", 73)
	require.NoError(t, env.svc.Add(ctx, older))
	newer := newPlayer("Aiden Gale", 73)
	require.NoError(t, env.svc.Add(ctx, newer))

	env.relations.failOn["reparent_encounters %d->%d"] = errors.New("db down")
	err := env.svc.Merge(ctx, older, newer.ID)
	assert.ErrorIs(t, err, ErrInconsistentState)

	// Cache-absent beats cache-duplicated: neither key resolves until the
	// next reload reconciles storage.
	_, ok := env.svc.GetByKey("AIDEN_STORM_73")
	assert.False(t, ok)
	_, ok = env.svc.GetByKey("AIDEN_GALE_73")
	assert.False(t, ok)
	assert.Zero(t, env.alerter.sentCount())
}

func TestMergeTakesLaterLastSeen(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	older := newPlayer("Aiden Storm", 73)
	older.LastSeen = env.clock.Now()
	require.NoError(t, env.svc.Add(ctx, older))
	newer := newPlayer("Aiden Gale", 73)
	newer.LastSeen = env.clock.Now().Add(-time.Hour)
	require.NoError(t, env.svc.Add(ctx, newer))

	before := older.LastSeen
	require.NoError(t, env.svc.Merge(ctx, older, newer.ID))
	assert.Equal(t, before, older.LastSeen)
}
