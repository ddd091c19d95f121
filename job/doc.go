// Package job defines the PDF export job record and its state machine.
//
// A job moves through the states queued → processing → complete/failed.
// A failed job may return to queued up to MaxRetries times; after that,
// failed is terminal. The record keeps the same identity across retries
// and accumulates its retry count rather than being recreated.
//
// Jobs are serialized to JSON for storage; field names are part of the
// queue wire format shared with the producing API server.
package job
