// Package queue provides the FIFO build queue that decouples accepting
// documentation requests from running them.
//
// Two implementations share the Queue interface: Redis (a Redis list,
// for multi-worker deployments) and Memory (in-process, for single-node
// use and tests). Workers poll with Pop and a short timeout so context
// cancellation is observed promptly; ErrEmpty on timeout is the signal
// to poll again, not a failure.
package queue
