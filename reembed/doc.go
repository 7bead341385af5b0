// Package reembed regenerates stored course embeddings, typically after the
// embedding model changes.
//
// Rows are read in batches, embedded again with retry and exponential
// backoff, and written back in place so embedding ids stay stable. A full
// run may change the persisted vector dimension to the new model's; a run
// limited to one course may not.
package reembed
