// Package queue decouples job submission from execution.
//
// Submitted job ids wait in a bounded FIFO buffer. A single dispatch loop
// hands them to a fixed-size worker pool, taking a per-job lock first so a
// job never runs on two workers at once. A full buffer rejects the
// submission with core.ErrQueueFull instead of blocking the caller.
//
// Cancellation is cooperative: Cancel raises a flag that the runner polls
// between pipeline steps.
package queue
