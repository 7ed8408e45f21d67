package scheduler

import "time"

// Delay before a distribution becomes eligible for re-enqueue, indexed
// by how many attempts it has already consumed. Index 0 covers pending
// records that were never attempted (the create-without-enqueue gap);
// the grace period keeps the sweep from racing a queue message that is
// simply still in flight.
var retryDelays = []time.Duration{
	1 * time.Minute,  // never attempted
	1 * time.Minute,  // after attempt 1
	5 * time.Minute,  // after attempt 2
	15 * time.Minute, // after attempt 3
	1 * time.Hour,    // after attempt 4
}

// RetryDelay returns how long a distribution with the given attempt
// count must have been idle before it is re-enqueued.
func RetryDelay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts >= len(retryDelays) {
		attempts = len(retryDelays) - 1
	}
	return retryDelays[attempts]
}
