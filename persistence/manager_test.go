package persistence

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntry struct {
	action string
	data   []byte
}

type fakeLog struct {
	entries []fakeEntry
}

func (f *fakeLog) Append(action string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.entries = append(f.entries, fakeEntry{action: action, data: data})
	return nil
}

func (f *fakeLog) ReadAll(fn func(action string, data []byte) error) error {
	for _, e := range f.entries {
		if err := fn(e.action, e.data); err != nil {
			return err
		}
	}
	return nil
}

type fakeRepo struct {
	handlers map[string]ActionHandler
}

func (f *fakeRepo) ReplayHandlers() map[string]ActionHandler { return f.handlers }

func TestReplayDispatchesByAction(t *testing.T) {
	log := &fakeLog{}
	m := NewManager(log, nil)

	require.NoError(t, m.Log(ActionCreateLibrary, map[string]any{"id": 0, "name": "A"}))
	require.NoError(t, m.Log(ActionCreateChunk, map[string]any{"id": 0, "text": "x"}))

	var libraries, chunks int
	libRepo := &fakeRepo{handlers: map[string]ActionHandler{
		ActionCreateLibrary: func([]byte) error { libraries++; return nil },
	}}
	chunkRepo := &fakeRepo{handlers: map[string]ActionHandler{
		ActionCreateChunk: func([]byte) error { chunks++; return nil },
	}}

	applied, err := m.Replay(libRepo, chunkRepo)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	assert.Equal(t, 1, libraries)
	assert.Equal(t, 1, chunks)
}

func TestReplaySkipsUnknownActions(t *testing.T) {
	log := &fakeLog{}
	m := NewManager(log, nil)

	require.NoError(t, m.Log("frobnicate_library", map[string]any{"id": 1}))
	require.NoError(t, m.Log(ActionCreateLibrary, map[string]any{"id": 0}))

	var seen int
	repo := &fakeRepo{handlers: map[string]ActionHandler{
		ActionCreateLibrary: func([]byte) error { seen++; return nil },
	}}

	applied, err := m.Replay(repo)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, 1, seen)
}

func TestReplayAbortsOnHandlerError(t *testing.T) {
	log := &fakeLog{}
	m := NewManager(log, nil)

	require.NoError(t, m.Log(ActionCreateLibrary, map[string]any{"id": 0}))
	require.NoError(t, m.Log(ActionCreateLibrary, map[string]any{"id": 1}))
	require.NoError(t, m.Log(ActionCreateLibrary, map[string]any{"id": 2}))

	boom := errors.New("corrupt payload")
	var calls int
	repo := &fakeRepo{handlers: map[string]ActionHandler{
		ActionCreateLibrary: func([]byte) error {
			calls++
			if calls == 2 {
				return boom
			}
			return nil
		},
	}}

	applied, err := m.Replay(repo)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, applied)
	assert.Equal(t, 2, calls)
}

func TestReplayPassesRawPayload(t *testing.T) {
	log := &fakeLog{}
	m := NewManager(log, nil)

	require.NoError(t, m.Log(ActionUpdateChunk, map[string]any{"id": 5, "text": "hi"}))

	var got struct {
		ID   uint32 `json:"id"`
		Text string `json:"text"`
	}
	repo := &fakeRepo{handlers: map[string]ActionHandler{
		ActionUpdateChunk: func(data []byte) error { return json.Unmarshal(data, &got) },
	}}

	_, err := m.Replay(repo)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), got.ID)
	assert.Equal(t, "hi", got.Text)
}
