// Package storage provides SQLite-based persistence for scan reports
// and artifact bytes.
//
// Reports are stored as JSON documents indexed by the content digest of
// the original file, so repeated uploads of the same bytes share one
// history. Original and sanitized artifact content is stored in a
// separate table keyed by (digest, kind), mirroring how an object store
// would key them in a service deployment.
//
// Design decision: We use a single database file rather than one per
// scan session. This simplifies history queries ("has this hash been
// seen before, and with what verdict") and backup/restore operations.
package storage
