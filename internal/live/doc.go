// Package live runs a polling session against one live broadcast.
//
// # Overview
//
// A Controller owns the connection state of a single session and moves
// through three states:
//
//	Disconnected --Start--> Connecting --setup ok--> Connected
//	     ^                       |                       |
//	     +------ setup failed ---+                       |
//	     +---- Disconnect, poll error, broadcast stopped +
//
// Start optionally logs in, resolves the target username to a user id,
// fetches the live descriptor, schedules the heartbeat and comment polls,
// marks the controller Connected and publishes EventConnected. Setup errors
// are returned to the caller and publish nothing.
//
// # Polls
//
// The heartbeat poll refreshes the viewer count and broadcast status. A
// status of "stopped" ends the session cleanly: EventFetchHeartbeat, then
// EventDisconnected with a nil error.
//
// The comment poll reads the feed after a cursor. The cursor is the wall
// clock in unix seconds at the last non-empty batch, so it only moves when
// something arrived and never moves backwards. Each batch publishes
// EventFetchComments, one EventUserComment per comment in response order,
// then one EventSystemComment per system comment, each join immediately
// followed by EventJoin.
//
// Any poll error publishes EventDisconnected carrying the error, then
// EventError with the same error. There are no retries.
//
// # Concurrency
//
// Polls run on a Scheduler; TickerScheduler is the default. A tick that is
// still running when the next one fires causes that firing to be skipped.
// Network calls run without locks; applying their results and publishing
// events is serialized across both polls, so handlers never run
// concurrently for tick events.
//
// Every session has an epoch. A tick records it before its network call
// and drops the result if the session ended in the meantime, so a late
// response cannot bring back a disconnected session. Disconnect also
// cancels the context of in-flight calls.
//
// Events are queued together with the state change they report and
// published by one goroutine at a time, in queue order. Handlers usually
// run on the goroutine that produced the event. A handler may call
// Disconnect or Start; the events those produce are delivered after the
// handler returns. Apart from the EventError that reports a poll failure,
// no event of a session follows its EventDisconnected, and poll events
// still queued when their session ends are dropped.
//
// EventFetchComments handlers see the cursor the batch was requested with.
// ViewerCount reads the last heartbeat, so it is zero until one arrives;
// the Session carries the descriptor's count before that.
package live
