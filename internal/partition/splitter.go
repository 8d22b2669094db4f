package partition

import "github.com/zeebo/xxh3"

// Splitter assigns records to one of n shards by hashing their key. The
// assignment is deterministic across runs and processes (xxh3 with no seed),
// so a keyed split of the same input always produces the same partitions.
type Splitter struct{ n uint64 }

// NewSplitter returns a Splitter over n shards. n must be >= 1.
func NewSplitter(n int) *Splitter {
	if n < 1 {
		n = 1
	}
	return &Splitter{n: uint64(n)}
}

// Shard returns the shard index in [0, n) for key.
func (s *Splitter) Shard(key string) int {
	return int(xxh3.HashString(key) % s.n)
}
