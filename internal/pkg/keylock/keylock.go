// Package keylock serializes operations per key. The activation engine holds
// a seller's lock across the whole pause/activate sequence so two concurrent
// activations for the same seller cannot interleave.
package keylock

import (
	"context"
	"hash/fnv"
	"strconv"
)

const shardCount = 128

// KeyLock is a fixed pool of channel-based mutexes. Channel mutexes allow
// waiting with select{} so callers can bail out on context cancellation.
type KeyLock struct {
	shards [shardCount]chan struct{}
}

// New creates a KeyLock with all shards unlocked.
func New() *KeyLock {
	kl := &KeyLock{}
	for i := range kl.shards {
		kl.shards[i] = make(chan struct{}, 1)
		kl.shards[i] <- struct{}{}
	}
	return kl
}

// Lock acquires the shard for key, respecting context cancellation. On
// success it returns an unlock function the caller must invoke; on
// cancellation it returns the context error.
func (kl *KeyLock) Lock(ctx context.Context, key int64) (func(), error) {
	shard := kl.shards[shardIdx(key)]
	select {
	case <-shard:
		return func() { shard <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func shardIdx(key int64) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(key, 10)))
	return h.Sum32() % shardCount
}
