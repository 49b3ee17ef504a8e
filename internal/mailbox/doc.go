// Package mailbox holds the most recent inbound payload for the consumer
// worker.
//
// The mailbox is a single slot: every Publish overwrites whatever is there,
// consumed or not, and there is no queue behind it. A zero length means the
// slot is empty. Take never clears the slot; the consumer clears it
// explicitly once it has its own copy, so a slow parse does not widen the
// window in which a new publish can land.
//
// Publish and Take are serialized by a short mutex around the copy, so a
// reader never sees a length from one message paired with bytes from
// another. Each publish bumps a sequence number; Release clears the slot only
// if nothing newer has arrived since the matching Take.
package mailbox
