// Package progress tracks generation jobs through their lifecycle.
//
// A Tracker persists every job in a storage.JobRepository and publishes a
// core.Event to the job's session after each change. Storage enforces that a
// roadmap has at most one non-terminal job; Create reports the job already in
// flight as a *core.DuplicateJobError.
//
// Only the worker that claimed a job with Start may advance it, so events for a
// job reach subscribers in the order the calls were made.
package progress
