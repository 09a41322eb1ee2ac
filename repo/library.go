package repo

import (
	"errors"
	"sort"
	"sync"

	"github.com/jandrana/vectordb/codec"
	"github.com/jandrana/vectordb/core"
	"github.com/jandrana/vectordb/model"
	"github.com/jandrana/vectordb/persistence"
)

type createLibraryPayload struct {
	ID   model.LibraryID `json:"id"`
	Name string          `json:"name"`
}

type updateLibraryPayload struct {
	ID   model.LibraryID `json:"id"`
	Name *string         `json:"name"`
}

type deleteLibraryPayload struct {
	ID model.LibraryID `json:"id"`
}

// LibraryRepo owns the id -> library map.
type LibraryRepo struct {
	mu        sync.Mutex
	libraries map[model.LibraryID]*model.Library
	alloc     *core.Allocator
	pm        *persistence.Manager
	codec     codec.Codec
}

// NewLibraryRepo creates an empty library repository.
func NewLibraryRepo(alloc *core.Allocator, pm *persistence.Manager, c codec.Codec) *LibraryRepo {
	if c == nil {
		c = codec.Default
	}
	return &LibraryRepo{
		libraries: make(map[model.LibraryID]*model.Library),
		alloc:     alloc,
		pm:        pm,
		codec:     c,
	}
}

// cloneLibrary copies the stored entity so readers never share memory with
// in-place updates.
func cloneLibrary(l *model.Library) *model.Library {
	cp := *l
	return &cp
}

// Get returns a copy of the library or an EntityNotFoundError.
func (r *LibraryRepo) Get(id model.LibraryID) (*model.Library, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lib, ok := r.libraries[id]
	if !ok {
		return nil, core.NewEntityNotFound(core.KindLibrary, uint32(id))
	}
	return cloneLibrary(lib), nil
}

// GetAll returns copies of all libraries ordered by ascending id.
func (r *LibraryRepo) GetAll() []*model.Library {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Library, 0, len(r.libraries))
	for _, lib := range r.libraries {
		out = append(out, cloneLibrary(lib))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Create allocates an id, logs the action and installs the library.
func (r *LibraryRepo) Create(name string) (*model.Library, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := model.LibraryID(r.alloc.Next(core.KindLibrary))
	return r.create(createLibraryPayload{ID: id, Name: name}, true)
}

// create applies a creation; with logIt it write-ahead logs first.
// Caller must hold r.mu.
func (r *LibraryRepo) create(p createLibraryPayload, logIt bool) (*model.Library, error) {
	if logIt {
		if err := r.pm.Log(persistence.ActionCreateLibrary, p); err != nil {
			return nil, err
		}
	} else {
		// Disk-assigned ids must win over the counter.
		r.alloc.Advance(core.KindLibrary, uint32(p.ID))
	}

	lib := &model.Library{ID: p.ID, Name: p.Name}
	r.libraries[p.ID] = lib
	return cloneLibrary(lib), nil
}

// Update applies the supplied fields. A nil field is left unchanged; the
// logged payload carries exactly what was supplied.
func (r *LibraryRepo) Update(id model.LibraryID, name *string) (*model.Library, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.update(updateLibraryPayload{ID: id, Name: name}, true)
}

func (r *LibraryRepo) update(p updateLibraryPayload, logIt bool) (*model.Library, error) {
	lib, ok := r.libraries[p.ID]
	if !ok {
		return nil, core.NewEntityNotFound(core.KindLibrary, uint32(p.ID))
	}

	if logIt {
		if err := r.pm.Log(persistence.ActionUpdateLibrary, p); err != nil {
			return nil, err
		}
	}

	if p.Name != nil {
		lib.Name = *p.Name
	}
	return cloneLibrary(lib), nil
}

// Delete removes the library. Cascading to documents is the service layer's
// job; the repository only deletes its own entity.
func (r *LibraryRepo) Delete(id model.LibraryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delete(deleteLibraryPayload{ID: id}, true)
}

func (r *LibraryRepo) delete(p deleteLibraryPayload, logIt bool) error {
	if _, ok := r.libraries[p.ID]; !ok {
		return core.NewEntityNotFound(core.KindLibrary, uint32(p.ID))
	}

	if logIt {
		if err := r.pm.Log(persistence.ActionDeleteLibrary, p); err != nil {
			return err
		}
	}

	delete(r.libraries, p.ID)
	return nil
}

// ReplayHandlers implements persistence.Replayable. Update/delete of an
// entity missing at that point of the log is ignored, mirroring the
// tolerance of the runtime path toward racing deletes.
func (r *LibraryRepo) ReplayHandlers() map[string]persistence.ActionHandler {
	return map[string]persistence.ActionHandler{
		persistence.ActionCreateLibrary: func(data []byte) error {
			var p createLibraryPayload
			if err := r.codec.Unmarshal(data, &p); err != nil {
				return err
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			_, err := r.create(p, false)
			return err
		},
		persistence.ActionUpdateLibrary: func(data []byte) error {
			var p updateLibraryPayload
			if err := r.codec.Unmarshal(data, &p); err != nil {
				return err
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			_, err := r.update(p, false)
			return ignoreNotFound(err)
		},
		persistence.ActionDeleteLibrary: func(data []byte) error {
			var p deleteLibraryPayload
			if err := r.codec.Unmarshal(data, &p); err != nil {
				return err
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			return ignoreNotFound(r.delete(p, false))
		},
	}
}

// ignoreNotFound drops EntityNotFoundError during replay of updates and
// deletes; everything else still aborts startup.
func ignoreNotFound(err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	return err
}
