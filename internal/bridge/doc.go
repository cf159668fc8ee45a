// Package bridge carries worker events to the UI goroutine. Producers never
// block; the consumer drains batches in production order.
package bridge
