// Package realtime streams document snapshots for tenant-scoped
// collections over a websocket connection.
//
// A Subscriber dials the realtime gateway once per subscription and
// delivers ordered snapshots on a channel until the context is
// cancelled. Reconnection policy is left to the caller: when the
// stream ends the channel is closed and Err reports why.
package realtime
