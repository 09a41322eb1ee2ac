// Package persistence sequences mutation logging and startup replay.
//
// The manager knows nothing about entity semantics: it appends named actions
// to the durable log and, on startup, dispatches each logged action to the
// handler a repository registered for that name. The log is the system of
// record; the in-memory repositories are a cache rebuilt from it on boot.
package persistence

import (
	"fmt"
	"log/slog"
)

// Action names recognized across the store. Unknown names found in the log
// are skipped on replay so newer logs stay readable by older binaries.
const (
	ActionCreateLibrary = "create_library"
	ActionUpdateLibrary = "update_library"
	ActionDeleteLibrary = "delete_library"

	ActionCreateDocument = "create_document"
	ActionUpdateDocument = "update_document"
	ActionDeleteDocument = "delete_document"

	ActionCreateChunk = "create_chunk"
	ActionUpdateChunk = "update_chunk"
	ActionDeleteChunk = "delete_chunk"
)

// ActionHandler re-applies one logged action from its serialized payload.
type ActionHandler func(data []byte) error

// Replayable is implemented by repositories that can rebuild their state
// from logged actions.
type Replayable interface {
	// ReplayHandlers maps each action name the repository recognizes to the
	// handler that re-applies it. Handlers must not re-log the action.
	ReplayHandlers() map[string]ActionHandler
}

// ActionLog is the durable log the manager writes to and replays from.
// *wal.Log satisfies it.
type ActionLog interface {
	Append(action string, payload any) error
	ReadAll(fn func(action string, data []byte) error) error
}

// Manager ties repositories to the action log.
type Manager struct {
	log    ActionLog
	logger *slog.Logger
}

// NewManager creates a Manager over the given log.
func NewManager(log ActionLog, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{log: log, logger: logger}
}

// Log durably appends one action. A returned error means the mutation that
// triggered it must not be reported as committed.
func (m *Manager) Log(action string, payload any) error {
	return m.log.Append(action, payload)
}

// Replay re-applies the whole log in file order through the handlers of the
// given repositories. Unknown actions are skipped; a handler failure aborts
// replay (startup must not continue on partial state). Returns the number of
// applied actions.
func (m *Manager) Replay(repos ...Replayable) (int, error) {
	handlers := make(map[string]ActionHandler)
	for _, r := range repos {
		for name, h := range r.ReplayHandlers() {
			handlers[name] = h
		}
	}

	applied := 0
	err := m.log.ReadAll(func(action string, data []byte) error {
		h, ok := handlers[action]
		if !ok {
			m.logger.Debug("skipping unknown action during replay", "action", action)
			return nil
		}
		if err := h(data); err != nil {
			return fmt.Errorf("replay of %s failed: %w", action, err)
		}
		applied++
		return nil
	})
	return applied, err
}
