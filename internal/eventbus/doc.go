// Package eventbus provides a small generic publish/subscribe hub.
//
// Unlike a channel fan-out, delivery is synchronous: Publish runs every
// handler on the publishing goroutine before returning, so observers see
// events in exactly the order they were produced. Handler panics are
// recovered per handler and reported through WithRecover.
package eventbus
