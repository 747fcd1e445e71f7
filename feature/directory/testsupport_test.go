package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"player-directory/feature/directory/models"

	"go.uber.org/zap"
)

// memStore is an in-memory PlayerStore that records batch deletions and can
// be told to fail individual operations.
type memStore struct {
	mu      sync.Mutex
	nextID  int
	rows    map[int]*models.Player
	loadSet []*models.Player

	createErr error
	updateErr error
	deleteErr error
	loadErr   error

	batches [][]int
	updates int
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, rows: make(map[int]*models.Player)}
}

func (m *memStore) CreatePlayer(_ context.Context, p *models.Player) (int, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.rows[id] = p
	return id, nil
}

func (m *memStore) UpdatePlayer(_ context.Context, p *models.Player) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.ID] = p
	m.updates++
	return nil
}

func (m *memStore) DeletePlayer(_ context.Context, id int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memStore) DeletePlayersWithRelations(_ context.Context, ids []int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, append([]int(nil), ids...))
	for _, id := range ids {
		delete(m.rows, id)
	}
	return nil
}

func (m *memStore) AllPlayersWithRelations(context.Context) ([]*models.Player, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadSet != nil {
		return m.loadSet, nil
	}
	out := make([]*models.Player, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) deletedIDs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int
	for _, batch := range m.batches {
		ids = append(ids, batch...)
	}
	return ids
}

// fakeRelations records every relation operation as a call string and can be
// told to fail specific operations.
type fakeRelations struct {
	mu         sync.Mutex
	calls      []string
	failOn     map[string]error
	encounters map[int]struct{}
}

func newFakeRelations() *fakeRelations {
	return &fakeRelations{failOn: make(map[string]error)}
}

func (f *fakeRelations) record(op string, args ...any) error {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf(op, args...))
	f.mu.Unlock()
	return f.failOn[op]
}

func (f *fakeRelations) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRelations) called(call string) bool {
	for _, c := range f.callList() {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeRelations) RecordNameWorldChange(_ context.Context, playerID int, name string, worldID uint32) error {
	return f.record("record_name_world %d %s/%d", playerID, name, worldID)
}

func (f *fakeRelations) RecordCustomizeChange(_ context.Context, playerID int, _ []byte) error {
	return f.record("record_customize %d", playerID)
}

func (f *fakeRelations) ReparentNameWorldHistory(_ context.Context, fromID, toID int) error {
	return f.record("reparent_name_world %d->%d", fromID, toID)
}

func (f *fakeRelations) ReparentCustomizeHistory(_ context.Context, fromID, toID int) error {
	return f.record("reparent_customize %d->%d", fromID, toID)
}

func (f *fakeRelations) ReparentEncounters(_ context.Context, fromID, toID int) error {
	return f.record("reparent_encounters %d->%d", fromID, toID)
}

func (f *fakeRelations) AssignCategory(_ context.Context, playerID, categoryID int) error {
	return f.record("assign_category %d %d", playerID, categoryID)
}

func (f *fakeRelations) AssignTag(_ context.Context, playerID, tagID int) error {
	return f.record("assign_tag %d %d", playerID, tagID)
}

func (f *fakeRelations) DeletePlayerTag(_ context.Context, playerID, tagID int) error {
	return f.record("delete_player_tag %d %d", playerID, tagID)
}

func (f *fakeRelations) DeletePlayerConfig(_ context.Context, playerID int) error {
	return f.record("delete_config %d", playerID)
}

func (f *fakeRelations) DeletePlayerCategories(_ context.Context, playerID int) error {
	return f.record("delete_categories %d", playerID)
}

func (f *fakeRelations) DeletePlayerTags(_ context.Context, playerID int) error {
	return f.record("delete_tags %d", playerID)
}

func (f *fakeRelations) DeleteLodestoneLookups(_ context.Context, playerID int) error {
	return f.record("delete_lodestone %d", playerID)
}

func (f *fakeRelations) DeleteNameWorldHistory(_ context.Context, playerID int) error {
	return f.record("delete_name_world %d", playerID)
}

func (f *fakeRelations) DeleteCustomizeHistory(_ context.Context, playerID int) error {
	return f.record("delete_customize %d", playerID)
}

func (f *fakeRelations) DeleteEncounters(_ context.Context, playerID int) error {
	return f.record("delete_encounters %d", playerID)
}

func (f *fakeRelations) CreateLodestoneLookup(_ context.Context, playerID int, name string, worldID uint32) error {
	return f.record("create_lodestone %d %s/%d", playerID, name, worldID)
}

func (f *fakeRelations) PlayersWithEncounters(context.Context) (map[int]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.encounters, nil
}

// staticCatalog serves fixed category and tag definitions.
type staticCatalog struct {
	categories []models.Category
	tags       []models.Tag
}

func (c *staticCatalog) Categories(context.Context) ([]models.Category, error) {
	return c.categories, nil
}

func (c *staticCatalog) CategoryRanks(context.Context) (map[int]int, error) {
	ranks := make(map[int]int, len(c.categories))
	for _, cat := range c.categories {
		ranks[cat.ID] = cat.Rank
	}
	return ranks, nil
}

func (c *staticCatalog) Tags(context.Context) ([]models.Tag, error) {
	return c.tags, nil
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock {
	return &fakeClock{now: at}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recordAlerter builds payloads like the production alerter but records what
// was sent instead of logging it.
type recordAlerter struct {
	LogAlerter
	mu   sync.Mutex
	sent [][]AlertPayload
}

func newRecordAlerter() *recordAlerter {
	return &recordAlerter{LogAlerter: *NewLogAlerter(zap.NewNop())}
}

func (a *recordAlerter) Send(payloads []AlertPayload) {
	a.mu.Lock()
	a.sent = append(a.sent, payloads)
	a.mu.Unlock()
}

func (a *recordAlerter) sentCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sent)
}

type testEnv struct {
	svc       *Service
	store     *memStore
	relations *fakeRelations
	catalog   *staticCatalog
	clock     *fakeClock
	alerter   *recordAlerter
	tracker   *SessionTracker
}

func newTestEnv() *testEnv {
	store := newMemStore()
	relations := newFakeRelations()
	catalog := &staticCatalog{}
	clk := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	alerter := newRecordAlerter()
	tracker := NewSessionTracker()

	cfg := Config{RecentThresholdMinutes: 15, SweepIntervalSeconds: 30}
	svc := NewService(cfg, store, relations, catalog, catalog, tracker, alerter, clk, zap.NewNop())
	return &testEnv{
		svc:       svc,
		store:     store,
		relations: relations,
		catalog:   catalog,
		clock:     clk,
		alerter:   alerter,
		tracker:   tracker,
	}
}

func newPlayer(name string, worldID uint32) *models.Player {
	return &models.Player{
		Key:     models.BuildPlayerKey(name, worldID),
		Name:    name,
		WorldID: worldID,
	}
}
