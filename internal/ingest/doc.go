// Package ingest decodes document-set bundles handed over by the capture
// pipeline.
//
// A bundle is a JSON or YAML file with a top-level "sets" list. Each set
// carries up to one document of each kind; line items arrive inline or as a
// CSV file referenced relative to the bundle. Decoding validates kinds and
// numbers but never evaluates the sets.
package ingest
