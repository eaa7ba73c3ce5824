// Package core holds the claims domain: the record schema, the CSV loader,
// the batch upsert writer, the query service and the summary aggregator.
//
// Nothing here knows about HTTP or a specific database. Storage sits behind
// the [Store] interface, implemented by the database package for PostgreSQL
// and by memstore for local runs and tests.
//
// # Bulk Import
//
// [Service.Import] runs the pipeline used by both the HTTP import endpoint
// and the importer CLI:
//
//  1. [ReadClaims] parses the whole CSV; the first bad row aborts with a [*ParseError]
//  2. When requested, every existing claim is deleted
//  3. [WriteBatches] upserts the rows in batches of [DefaultBatchSize], one
//     transaction per batch, matched on the configured [ConflictKey]
//
// A failing batch rolls back alone; earlier batches stay committed and the
// failure surfaces as a [*StoreError] naming the batch.
//
// # Error Handling
//
// Errors are matchable with errors.Is and errors.As: [ErrNotFound],
// [ErrConflict], [ErrImportInProgress], [*ValidationError], [*ParseError] and
// [*StoreError]. [MapError] turns any of them into a [UserMessage] with a
// support code.
package core
