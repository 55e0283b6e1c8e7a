package app

import (
	"hash/fnv"
	"sync"
)

// stripeCount trades memory for contention; dispatches for distinct
// subscriptions rarely collide on a stripe.
const stripeCount = 64

// keyedLocks serializes work per string key using a fixed set of striped
// mutexes. Two events for the same subscription therefore never interleave,
// while events for different subscriptions almost always run in parallel.
type keyedLocks struct {
	stripes [stripeCount]sync.Mutex
}

// Lock acquires the stripe for key and returns its unlock function.
func (l *keyedLocks) Lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	stripe := &l.stripes[h.Sum32()%stripeCount]
	stripe.Lock()
	return stripe.Unlock
}
