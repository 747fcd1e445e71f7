package directory

import (
	"context"
	"errors"
	"testing"

	"player-directory/feature/directory/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAssignsIDAndIndexesPlayer(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	p := newPlayer("Aiden Gale", 73)
	require.NoError(t, env.svc.Add(ctx, p))

	assert.Equal(t, 1, p.ID)
	assert.Equal(t, 1, p.PlayerConfig.PlayerID)

	got, ok := env.svc.GetByKey("AIDEN_GALE_73")
	require.True(t, ok)
	assert.Same(t, p, got)

	// An unassigned player lands in the "none" bucket of both kinds.
	players, total, err := env.svc.List(View{Kind: ViewCategory, BucketID: models.BucketNone}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, players, 1)
	assert.Same(t, p, players[0])

	assert.True(t, env.relations.called("create_lodestone 1 Aiden Gale/73"))
}

func TestAddPersistsInitialCategoryAssignment(t *testing.T) {
	env := newTestEnv()
	env.catalog.categories = []models.Category{{ID: 4, Name: "Friends", Rank: 1}}

	// Callers hand over assignments only; the primary category is derived.
	p := newPlayer("Mira Vale", 40)
	p.AssignedCategories = []models.Category{{ID: 4, Name: "Friends", Rank: 1}}
	require.NoError(t, env.svc.Add(context.Background(), p))

	assert.Equal(t, 4, p.PrimaryCategoryID)
	assert.True(t, env.relations.called("assign_category 1 4"))

	players, total, err := env.svc.List(View{Kind: ViewCategory, BucketID: 4}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, players, 1)

	// Assigned players do not appear in the "none" bucket.
	_, total, err = env.svc.List(View{Kind: ViewCategory, BucketID: models.BucketNone}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAddPersistsEveryAssignedCategory(t *testing.T) {
	env := newTestEnv()
	env.catalog.categories = []models.Category{
		{ID: 1, Name: "Friends", Rank: 1},
		{ID: 2, Name: "Rivals", Rank: 2},
	}

	p := newPlayer("Mira Vale", 40)
	p.AssignedCategories = []models.Category{{ID: 1, Rank: 1}, {ID: 2, Rank: 2}}
	require.NoError(t, env.svc.Add(context.Background(), p))

	assert.True(t, env.relations.called("assign_category 1 1"))
	assert.True(t, env.relations.called("assign_category 1 2"))
}

func TestAddOrdersByCategoryRankWithoutReload(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.catalog.categories = []models.Category{
		{ID: 1, Name: "Friends", Rank: 1},
		{ID: 2, Name: "Rivals", Rank: 2},
	}

	// Added in the wrong name order on purpose: rank must dominate even
	// before the first reload has seeded the views.
	rival := newPlayer("Aiden Gale", 73)
	rival.AssignedCategories = []models.Category{{ID: 2, Rank: 2}}
	friend := newPlayer("Zed Harrow", 73)
	friend.AssignedCategories = []models.Category{{ID: 1, Rank: 1}}
	require.NoError(t, env.svc.Add(ctx, rival))
	require.NoError(t, env.svc.Add(ctx, friend))

	players, _, err := env.svc.List(View{Kind: ViewAll}, 0, 10, "", "")
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, []string{"Zed Harrow", "Aiden Gale"}, []string{players[0].Name, players[1].Name})
}

func TestAddCreateFailureLeavesCacheUntouched(t *testing.T) {
	env := newTestEnv()
	env.store.createErr = errors.New("db down")

	err := env.svc.Add(context.Background(), newPlayer("Aiden Gale", 73))
	require.Error(t, err)
	_, ok := env.svc.GetByKey("AIDEN_GALE_73")
	assert.False(t, ok)
}

func TestUpdateUnknownPlayerReturnsNotFound(t *testing.T) {
	env := newTestEnv()
	p := newPlayer("Aiden Gale", 73)
	p.ID = 99
	assert.ErrorIs(t, env.svc.Update(context.Background(), p), ErrNotFound)
}

func TestUpdateStorageFailureKeepsMemoryApplied(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	p := newPlayer("Aiden Gale", 73)
	require.NoError(t, env.svc.Add(ctx, p))

	env.store.updateErr = errors.New("db down")
	p.Notes = "suspicious"
	err := env.svc.Update(ctx, p)
	require.Error(t, err)

	got, ok := env.svc.GetByID(p.ID)
	require.True(t, ok)
	assert.Equal(t, "suspicious", got.Notes)
}

func TestMarkCurrentMaintainsCurrentView(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	p := newPlayer("Aiden Gale", 73)
	require.NoError(t, env.svc.Add(ctx, p))

	require.NoError(t, env.svc.MarkCurrent(ctx, p.ID, true))
	_, total, err := env.svc.List(View{Kind: ViewCurrent}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, p.SeenCount)
	assert.Equal(t, env.clock.Now(), p.LastSeen)

	require.NoError(t, env.svc.MarkCurrent(ctx, p.ID, false))
	_, total, err = env.svc.List(View{Kind: ViewCurrent}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Equal(t, 1, p.SeenCount)
}

func TestListValidatesViewAndMatchMode(t *testing.T) {
	env := newTestEnv()

	_, _, err := env.svc.List(View{Kind: "bogus"}, 0, 10, "", "")
	assert.ErrorIs(t, err, ErrInvalidView)

	_, _, err = env.svc.List(View{Kind: ViewAll}, 0, 10, "aiden", "fuzzy")
	assert.ErrorIs(t, err, ErrInvalidMatchMode)
}

func TestListUnknownBucketIsEmptyNotError(t *testing.T) {
	env := newTestEnv()
	players, total, err := env.svc.List(View{Kind: ViewCategory, BucketID: 123}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, players)
}

func TestListNameFilterModes(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	require.NoError(t, env.svc.Add(ctx, newPlayer("Aiden Gale", 73)))
	require.NoError(t, env.svc.Add(ctx, newPlayer("Aiden Storm", 73)))
	require.NoError(t, env.svc.Add(ctx, newPlayer("Mira Vale", 40)))

	tests := []struct {
		name  string
		query string
		mode  MatchMode
		want  int
	}{
		{"contains is the default", "ale", "", 2},
		{"contains", "aiden", MatchContains, 2},
		{"starts with", "mira", MatchStartsWith, 1},
		{"exact", "aiden gale", MatchExact, 1},
		{"exact misses partials", "aiden", MatchExact, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			players, total, err := env.svc.List(View{Kind: ViewAll}, 0, 10, tt.query, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, players, tt.want)
		})
	}
}

func TestListCountMatchesFilteredTotalAcrossPages(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	names := []string{"Aiden Gale", "Aiden Storm", "Aiden Reed", "Mira Vale", "Sora Kino"}
	for _, n := range names {
		require.NoError(t, env.svc.Add(ctx, newPlayer(n, 73)))
	}

	page1, total, err := env.svc.List(View{Kind: ViewAll}, 0, 2, "aiden", MatchContains)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page1, 2)

	page2, total, err := env.svc.List(View{Kind: ViewAll}, 2, 2, "aiden", MatchContains)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page2, 1)

	// Offset past the end of the filtered result is an empty page.
	past, total, err := env.svc.List(View{Kind: ViewAll}, 10, 2, "aiden", MatchContains)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, past)
}

func TestDeleteCascadesAndEvicts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	p := newPlayer("Aiden Gale", 73)
	require.NoError(t, env.svc.Add(ctx, p))
	require.NoError(t, env.svc.MarkCurrent(ctx, p.ID, true))

	require.NoError(t, env.svc.Delete(ctx, p.ID))

	_, ok := env.svc.GetByKey("AIDEN_GALE_73")
	assert.False(t, ok)
	_, total, err := env.svc.List(View{Kind: ViewCurrent}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Zero(t, total)

	for _, call := range []string{
		"delete_customize 1", "delete_name_world 1", "delete_categories 1",
		"delete_config 1", "delete_tags 1", "delete_lodestone 1", "delete_encounters 1",
	} {
		assert.True(t, env.relations.called(call), call)
	}
}

func TestDeleteContinuesPastFailedCascadeStep(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	p := newPlayer("Aiden Gale", 73)
	require.NoError(t, env.svc.Add(ctx, p))

	env.relations.failOn["delete_config %d"] = errors.New("db down")
	require.NoError(t, env.svc.Delete(ctx, p.ID))

	assert.True(t, env.relations.called("delete_encounters 1"))
	_, ok := env.svc.GetByID(p.ID)
	assert.False(t, ok)
}

func TestAssignAndUnassignTagMaintainBuckets(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.catalog.tags = []models.Tag{{ID: 7, Name: "pvp"}}
	p := newPlayer("Aiden Gale", 73)
	require.NoError(t, env.svc.Add(ctx, p))

	require.NoError(t, env.svc.AssignTag(ctx, p.ID, 7))
	assert.True(t, env.relations.called("assign_tag 1 7"))
	assert.Equal(t, "pvp", p.AssignedTags[0].Name)

	_, total, err := env.svc.List(View{Kind: ViewTag, BucketID: 7}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	_, total, err = env.svc.List(View{Kind: ViewTag, BucketID: models.BucketNone}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Zero(t, total)

	// Re-assigning is a no-op.
	require.NoError(t, env.svc.AssignTag(ctx, p.ID, 7))
	assert.Len(t, p.AssignedTags, 1)

	require.NoError(t, env.svc.UnassignTag(ctx, p.ID, 7))
	assert.True(t, env.relations.called("delete_player_tag 1 7"))
	_, total, err = env.svc.List(View{Kind: ViewTag, BucketID: 7}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Zero(t, total)
	_, total, err = env.svc.List(View{Kind: ViewTag, BucketID: models.BucketNone}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestUpdateTagsPersistsLinkRowDiff(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.catalog.tags = []models.Tag{{ID: 7, Name: "pvp"}, {ID: 9, Name: "crafter"}}
	p := newPlayer("Aiden Gale", 73)
	require.NoError(t, env.svc.Add(ctx, p))
	require.NoError(t, env.svc.AssignTag(ctx, p.ID, 7))

	require.NoError(t, env.svc.UpdateTags(ctx, p.ID, []models.Tag{{ID: 9, Name: "crafter"}}))

	// The dropped tag loses its link row, the added one gains it.
	assert.True(t, env.relations.called("delete_player_tag 1 7"))
	assert.True(t, env.relations.called("assign_tag 1 9"))

	_, total, err := env.svc.List(View{Kind: ViewTag, BucketID: 9}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	_, total, err = env.svc.List(View{Kind: ViewTag, BucketID: 7}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Zero(t, total)

	// A tag present in both sets gets no further link-row writes.
	require.NoError(t, env.svc.UpdateTags(ctx, p.ID, []models.Tag{{ID: 9, Name: "crafter"}}))
	var assigns int
	for _, c := range env.relations.callList() {
		if c == "assign_tag 1 9" {
			assigns++
		}
	}
	assert.Equal(t, 1, assigns)
}

func TestUpdateTagsUnknownPlayerReturnsNotFound(t *testing.T) {
	env := newTestEnv()
	err := env.svc.UpdateTags(context.Background(), 99, []models.Tag{{ID: 7}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlayerInEveryAssignedCategoryBucket(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.catalog.categories = []models.Category{
		{ID: 1, Name: "Friends", Rank: 1},
		{ID: 2, Name: "Rivals", Rank: 2},
	}

	p := newPlayer("Aiden Gale", 73)
	p.AssignedCategories = []models.Category{
		{ID: 1, Name: "Friends", Rank: 1},
		{ID: 2, Name: "Rivals", Rank: 2},
	}
	require.NoError(t, env.svc.Add(ctx, p))

	for _, bucket := range []int{1, 2} {
		_, total, err := env.svc.List(View{Kind: ViewCategory, BucketID: bucket}, 0, 10, "", "")
		require.NoError(t, err)
		assert.Equal(t, 1, total, "bucket %d", bucket)
	}
	assert.Equal(t, 1, p.PrimaryCategoryID)
}

func TestClearCategoryFromPlayers(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.catalog.categories = []models.Category{{ID: 5, Name: "Blocked", Rank: 1}}

	p := newPlayer("Aiden Gale", 73)
	p.AssignedCategories = []models.Category{{ID: 5, Name: "Blocked", Rank: 1}}
	require.NoError(t, env.svc.Add(ctx, p))

	env.svc.ClearCategoryFromPlayers(ctx, 5)

	assert.Empty(t, p.AssignedCategories)
	assert.Equal(t, models.BucketNone, p.PrimaryCategoryID)
	_, total, err := env.svc.List(View{Kind: ViewCategory, BucketID: models.BucketNone}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSubscribeDeliversEventsUntilUnsubscribed(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	var got []EventType
	unsubscribe := env.svc.Subscribe(func(e Event) { got = append(got, e.Type) })

	p := newPlayer("Aiden Gale", 73)
	require.NoError(t, env.svc.Add(ctx, p))
	require.NoError(t, env.svc.UpdateNotes(ctx, p.ID, "friendly"))

	unsubscribe()
	require.NoError(t, env.svc.UpdateNotes(ctx, p.ID, "still friendly"))

	assert.Equal(t, []EventType{EventPlayerAdded, EventPlayerUpdated}, got)
}

func TestPopulateDerivedFieldsUsesPrimaryCategoryAndOverrides(t *testing.T) {
	p := newPlayer("Aiden Gale", 73)
	p.AssignedCategories = []models.Category{
		{ID: 2, Name: "Rivals", Rank: 5, ListColor: 0xFF0000, Icon: 0xF071},
		{ID: 1, Name: "Friends", Rank: 1, ListColor: 0x00FF00, Icon: 0xF004},
	}
	ranks := map[int]int{1: 1, 2: 5}

	populateDerivedFields(p, ranks)
	assert.Equal(t, 1, p.PrimaryCategoryID)
	assert.Equal(t, uint32(0x00FF00), p.ListColor)
	assert.Equal(t, "Friends", p.Nameplate)

	p.PlayerConfig = models.PlayerConfig{
		ColorOverride:     0x0000FF,
		UseNameplateTitle: true,
		NameplateTitle:    "The Rival",
	}
	populateDerivedFields(p, ranks)
	assert.Equal(t, uint32(0x0000FF), p.ListColor)
	assert.Equal(t, "The Rival", p.Nameplate)
}

func TestRecalculateRankingsReordersViews(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.catalog.categories = []models.Category{
		{ID: 1, Name: "Friends", Rank: 1},
		{ID: 2, Name: "Rivals", Rank: 2},
	}

	friend := newPlayer("Zed Harrow", 73)
	friend.AssignedCategories = []models.Category{{ID: 1, Rank: 1}}
	rival := newPlayer("Aiden Gale", 73)
	rival.AssignedCategories = []models.Category{{ID: 2, Rank: 2}}
	require.NoError(t, env.svc.Add(ctx, friend))
	require.NoError(t, env.svc.Add(ctx, rival))

	players, _, err := env.svc.List(View{Kind: ViewAll}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Zed Harrow", "Aiden Gale"}, []string{players[0].Name, players[1].Name})

	// Flip the ranks and re-sort: the rival category now outranks friends.
	env.catalog.categories = []models.Category{
		{ID: 1, Name: "Friends", Rank: 2},
		{ID: 2, Name: "Rivals", Rank: 1},
	}
	require.NoError(t, env.svc.RecalculateRankings(ctx))

	players, _, err = env.svc.List(View{Kind: ViewAll}, 0, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Aiden Gale", "Zed Harrow"}, []string{players[0].Name, players[1].Name})
}
