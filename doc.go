// Package vectordb is an embedded document store with keyword and vector
// search.
//
// Content is organized as libraries containing documents containing chunks.
// A chunk is a unit of text with an optional embedding generated by an
// external provider. Two search strategies rank the chunks of a library
// against a query: "keyword" counts matching query terms via an inverted
// index, "knn" runs a brute-force cosine similarity scan over chunk
// embeddings.
//
// Durability comes from an append-only action log: every accepted mutation
// is logged before it is applied, and Open replays the log to rebuild the
// exact prior state.
//
//	store, err := vectordb.Open("/var/lib/vectordb",
//		vectordb.WithEmbedder(provider),
//	)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	lib, _ := store.CreateLibrary("docs")
//	doc, _ := store.CreateDocument("intro", lib.ID)
//	store.CreateChunk("the quick brown fox", doc.ID, nil)
//
//	store.IndexLibrary(ctx, lib.ID)
//	hits, _ := store.Search(ctx, lib.ID, "quick fox", "knn", 5)
package vectordb
