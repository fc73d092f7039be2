// Package folio turns heterogeneous web content (articles, forum threads,
// Q&A threads, video transcripts) into a portable document bundle. The core
// of the package is a resilient fetch gateway with retry/backoff/fallback
// semantics, an image-asset resolver that ranks, fetches, validates and
// deduplicates binary assets, and a pure comment-tree enrichment algorithm
// that computes anchor-navigation links over arbitrarily deep reply trees.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., http/, goquery/, sqlite/).
package folio
