// Package hooks owns the process-wide failure hooks.
//
// This package is internal to FaultBoard. There is exactly one slot per
// process holding three hooks: the script-error hook, the rejection hook and
// the key listener. The slot is a capability: [Acquire] hands out a [Lease]
// and fails with [ErrSlotHeld] while another lease is live, and
// [Lease.Release] resets all three hooks to absent.
//
// Failure sources never call a hook directly. They go through
// [DispatchError], [DispatchRejection] and [DispatchKey], which report
// whether a hook handled the failure so the caller can fall back to its
// default reporting.
package hooks
