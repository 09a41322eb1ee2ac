package repo

import (
	"sort"
	"sync"

	"github.com/jandrana/vectordb/codec"
	"github.com/jandrana/vectordb/core"
	"github.com/jandrana/vectordb/model"
	"github.com/jandrana/vectordb/persistence"
)

type createDocumentPayload struct {
	ID        model.DocumentID `json:"id"`
	Name      string           `json:"name"`
	LibraryID model.LibraryID  `json:"library_id"`
}

type updateDocumentPayload struct {
	ID   model.DocumentID `json:"id"`
	Name *string          `json:"name"`
}

type deleteDocumentPayload struct {
	ID model.DocumentID `json:"id"`
}

// libraryResolver is the slice of LibraryRepo the document repository needs.
type libraryResolver interface {
	Get(id model.LibraryID) (*model.Library, error)
}

// DocumentRepo owns the id -> document map.
type DocumentRepo struct {
	mu        sync.Mutex
	documents map[model.DocumentID]*model.Document
	alloc     *core.Allocator
	pm        *persistence.Manager
	libraries libraryResolver
	codec     codec.Codec
}

// NewDocumentRepo creates an empty document repository.
func NewDocumentRepo(alloc *core.Allocator, pm *persistence.Manager, libraries libraryResolver, c codec.Codec) *DocumentRepo {
	if c == nil {
		c = codec.Default
	}
	return &DocumentRepo{
		documents: make(map[model.DocumentID]*model.Document),
		alloc:     alloc,
		pm:        pm,
		libraries: libraries,
		codec:     c,
	}
}

// cloneDocument copies the stored entity so readers never share memory with
// in-place updates.
func cloneDocument(d *model.Document) *model.Document {
	cp := *d
	return &cp
}

// Get returns a copy of the document or an EntityNotFoundError.
func (r *DocumentRepo) Get(id model.DocumentID) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.documents[id]
	if !ok {
		return nil, core.NewEntityNotFound(core.KindDocument, uint32(id))
	}
	return cloneDocument(doc), nil
}

// GetAll returns copies of all documents ordered by ascending id.
func (r *DocumentRepo) GetAll() []*model.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Document, 0, len(r.documents))
	for _, doc := range r.documents {
		out = append(out, cloneDocument(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetByLibrary returns copies of the documents of one library ordered by
// ascending id.
func (r *DocumentRepo) GetByLibrary(libraryID model.LibraryID) []*model.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Document
	for _, doc := range r.documents {
		if doc.LibraryID == libraryID {
			out = append(out, cloneDocument(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Create validates the parent library, allocates an id, logs and installs
// the document. A missing library fails before any side effect.
func (r *DocumentRepo) Create(name string, libraryID model.LibraryID) (*model.Document, error) {
	if _, err := r.libraries.Get(libraryID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := model.DocumentID(r.alloc.Next(core.KindDocument))
	return r.create(createDocumentPayload{ID: id, Name: name, LibraryID: libraryID}, true)
}

func (r *DocumentRepo) create(p createDocumentPayload, logIt bool) (*model.Document, error) {
	if logIt {
		if err := r.pm.Log(persistence.ActionCreateDocument, p); err != nil {
			return nil, err
		}
	} else {
		r.alloc.Advance(core.KindDocument, uint32(p.ID))
	}

	doc := &model.Document{ID: p.ID, Name: p.Name, LibraryID: p.LibraryID}
	r.documents[p.ID] = doc
	return cloneDocument(doc), nil
}

// Update applies the supplied fields.
func (r *DocumentRepo) Update(id model.DocumentID, name *string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.update(updateDocumentPayload{ID: id, Name: name}, true)
}

func (r *DocumentRepo) update(p updateDocumentPayload, logIt bool) (*model.Document, error) {
	doc, ok := r.documents[p.ID]
	if !ok {
		return nil, core.NewEntityNotFound(core.KindDocument, uint32(p.ID))
	}

	if logIt {
		if err := r.pm.Log(persistence.ActionUpdateDocument, p); err != nil {
			return nil, err
		}
	}

	if p.Name != nil {
		doc.Name = *p.Name
	}
	return cloneDocument(doc), nil
}

// Delete removes the document. Cascading to chunks is the service layer's
// job.
func (r *DocumentRepo) Delete(id model.DocumentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delete(deleteDocumentPayload{ID: id}, true)
}

func (r *DocumentRepo) delete(p deleteDocumentPayload, logIt bool) error {
	if _, ok := r.documents[p.ID]; !ok {
		return core.NewEntityNotFound(core.KindDocument, uint32(p.ID))
	}

	if logIt {
		if err := r.pm.Log(persistence.ActionDeleteDocument, p); err != nil {
			return err
		}
	}

	delete(r.documents, p.ID)
	return nil
}

// ReplayHandlers implements persistence.Replayable.
func (r *DocumentRepo) ReplayHandlers() map[string]persistence.ActionHandler {
	return map[string]persistence.ActionHandler{
		persistence.ActionCreateDocument: func(data []byte) error {
			var p createDocumentPayload
			if err := r.codec.Unmarshal(data, &p); err != nil {
				return err
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			_, err := r.create(p, false)
			return err
		},
		persistence.ActionUpdateDocument: func(data []byte) error {
			var p updateDocumentPayload
			if err := r.codec.Unmarshal(data, &p); err != nil {
				return err
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			_, err := r.update(p, false)
			return ignoreNotFound(err)
		},
		persistence.ActionDeleteDocument: func(data []byte) error {
			var p deleteDocumentPayload
			if err := r.codec.Unmarshal(data, &p); err != nil {
				return err
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			return ignoreNotFound(r.delete(p, false))
		},
	}
}
