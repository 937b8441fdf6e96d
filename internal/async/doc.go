// Package async provides a minimal one-shot future used for per-sublayer
// background fetches.
//
// The layer package starts refinement fetches (feature counts, attribute
// schemas, legends) whose completions may arrive after the owning record has
// been torn down. Each Result owns its completion state, so a late write lands
// on the Result itself and never on record-owned maps. Consumers either block
// with Wait or poll with TryGet; there is no cancellation, matching the
// fire-and-forget fetch model the record uses.
package async
