package directory

import (
	"fmt"
	"sync"

	"player-directory/feature/directory/models"

	"go.uber.org/zap"
)

// LogAlerter renders name/world-change alerts and delivers them to the log.
type LogAlerter struct {
	logger *zap.Logger
}

// NewLogAlerter creates an alerter that writes alerts to the given logger.
func NewLogAlerter(logger *zap.Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

// NameWorldChangeAlert builds one payload per observable difference between
// the records. An empty slice means the records look identical, which the
// merge engine treats as suspicious.
func (a *LogAlerter) NameWorldChangeAlert(older, newer *models.Player) []AlertPayload {
	var payloads []AlertPayload
	if older.Name != newer.Name {
		payloads = append(payloads, AlertPayload{
			PlayerID: older.ID,
			Message:  fmt.Sprintf("%s is now known as %s", older.Name, newer.Name),
		})
	}
	if older.WorldID != newer.WorldID {
		payloads = append(payloads, AlertPayload{
			PlayerID: older.ID,
			Message:  fmt.Sprintf("%s moved from world %d to world %d", newer.Name, older.WorldID, newer.WorldID),
		})
	}
	return payloads
}

// Send delivers the payloads.
func (a *LogAlerter) Send(payloads []AlertPayload) {
	for _, p := range payloads {
		a.logger.Info("Player alert",
			zap.Int("player_id", p.PlayerID),
			zap.String("message", p.Message))
	}
}

// SessionTracker is an in-memory registry of live object handles. It stands
// in for a game-session watcher, remembering which object ids are currently
// bound to which player ids.
type SessionTracker struct {
	mu   sync.Mutex
	live map[uint32]int
}

// NewSessionTracker creates an empty tracker.
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{live: make(map[uint32]int)}
}

// RegisterCurrent binds the player's object handle to its id.
func (t *SessionTracker) RegisterCurrent(p *models.Player) {
	if p.ObjectID == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live[p.ObjectID] = p.ID
}

// RemoveCurrent unbinds an object handle.
func (t *SessionTracker) RemoveCurrent(objectID uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.live, objectID)
}

// CurrentPlayerID returns the player id bound to the handle, if any.
func (t *SessionTracker) CurrentPlayerID(objectID uint32) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.live[objectID]
	return id, ok
}

var (
	_ Alerter        = (*LogAlerter)(nil)
	_ ProcessTracker = (*SessionTracker)(nil)
)
