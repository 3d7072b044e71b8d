package core

import (
	"sync"
	"time"
)

// condWaitTimeout waits on c, bounded by d. It returns false if d
// elapsed with no intervening Broadcast/Signal, true otherwise.
// sync.Cond has no native timed wait, so this arms a timer that
// broadcasts c itself on expiry; every waiter re-checks its own
// predicate on wakeup regardless of which of the two fired, the same
// way callers of pthread_cond_timedwait must.
func condWaitTimeout(c *sync.Cond, d time.Duration) bool {
	timer := time.AfterFunc(d, c.Broadcast)
	c.Wait()
	return timer.Stop()
}
