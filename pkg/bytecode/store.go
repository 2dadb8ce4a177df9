package bytecode

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ---------------------------------------------------------------------------
// ChunkStore: content-addressed cache of compiled chunks
// ---------------------------------------------------------------------------

// SourceHash is the content address of a source text.
type SourceHash uint64

// HashSource returns the xxhash64 content address of source.
func HashSource(source string) SourceHash {
	return SourceHash(xxhash.Sum64String(source))
}

// ChunkStore indexes compiled chunks by the hash of the source they were
// compiled from. Stored chunks are shared and must not be modified.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[SourceHash]*Chunk
	limit  int
}

// NewChunkStore creates an empty store holding at most limit chunks.
// A limit of zero or less means unbounded.
func NewChunkStore(limit int) *ChunkStore {
	return &ChunkStore{
		chunks: make(map[SourceHash]*Chunk),
		limit:  limit,
	}
}

// Put indexes a chunk under the hash of source and returns that hash.
// When the store is full, the chunk is not retained.
func (s *ChunkStore) Put(source string, c *Chunk) SourceHash {
	h := HashSource(source)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[h]; !ok && s.limit > 0 && len(s.chunks) >= s.limit {
		return h
	}
	s.chunks[h] = c
	return h
}

// Lookup returns the chunk for the given hash, or nil.
func (s *ChunkStore) Lookup(h SourceHash) *Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks[h]
}

// LookupSource is Lookup(HashSource(source)).
func (s *ChunkStore) LookupSource(source string) *Chunk {
	return s.Lookup(HashSource(source))
}

// Len returns the number of stored chunks.
func (s *ChunkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}
