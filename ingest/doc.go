// Package ingest turns raw documents into the retrievable corpus: pages
// are cut into large parent spans and small child chunks, children are
// embedded in batched worker-pool requests, everything is stored
// content-addressed, and the collection's keyword snapshot is rebuilt.
package ingest
