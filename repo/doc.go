// Package repo holds the entity repositories: mutex-guarded in-memory maps
// that are the canonical runtime state for libraries, documents and chunks.
//
// Every mutation is written to the action log before it is applied
// (write-ahead), so a failed append leaves the map untouched. Replay
// handlers re-apply logged actions through the same code path with logging
// suppressed; there is no mutable replay-mode flag to get stuck.
//
// Getters and mutators return copies made under the repository lock, never
// pointers into the live maps, so callers can read results while other
// goroutines mutate the same entities. Chunk copies share the embedding
// backing array; updates replace the slice wholesale and never write through
// it.
package repo
