// Package work implements the batch refresh of cached periodic returns.
//
// # Batch Design
//
// A run walks the scheme catalogue in code order, starting at an offset:
//   - Items are processed sequentially in chunks of ChunkSize, with a Cooldown pause between chunks
//   - Transient provider failures are retried with exponential backoff, up to MaxAttempts per item
//   - A scheme without NAV data is counted and skipped; any other failure is recorded and skipped
//
// # Checkpointing
//
// After every item the position is written to a msgpack checkpoint file. A run started with
// Resume picks up from the recorded position, so a crash costs at most one item. The file is
// removed when a run completes. Cancelling the context stops the run and keeps the checkpoint.
//
// Every run is recorded in the refresh_runs table with its summary.
package work
