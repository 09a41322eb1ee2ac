package repo

import "github.com/jandrana/vectordb/persistence"

// EmitState calls emit with one create action per live library, in ascending
// id order. Replaying the emitted actions reproduces the repository exactly;
// compaction uses this to collapse the log.
func (r *LibraryRepo) EmitState(emit func(action string, payload any) error) error {
	for _, lib := range r.GetAll() {
		p := createLibraryPayload{ID: lib.ID, Name: lib.Name}
		if err := emit(persistence.ActionCreateLibrary, p); err != nil {
			return err
		}
	}
	return nil
}

// EmitState calls emit with one create action per live document, in ascending
// id order.
func (r *DocumentRepo) EmitState(emit func(action string, payload any) error) error {
	for _, doc := range r.GetAll() {
		p := createDocumentPayload{ID: doc.ID, Name: doc.Name, LibraryID: doc.LibraryID}
		if err := emit(persistence.ActionCreateDocument, p); err != nil {
			return err
		}
	}
	return nil
}

// EmitState calls emit with one create action per live chunk, in ascending id
// order. Embeddings ride along so a compacted log still restores them.
func (r *ChunkRepo) EmitState(emit func(action string, payload any) error) error {
	for _, chunk := range r.GetAll() {
		p := createChunkPayload{
			ID:         chunk.ID,
			Text:       chunk.Text,
			DocumentID: chunk.DocumentID,
			LibraryID:  chunk.LibraryID,
			Embedding:  chunk.Embedding,
		}
		if err := emit(persistence.ActionCreateChunk, p); err != nil {
			return err
		}
	}
	return nil
}
