/*
Package events implements an in-memory pub/sub broker used to decouple
the write-queue worker from the replication manager and from cache
invalidation fanout.

Broker is topic-agnostic: every event is broadcast to every subscriber.
Publish queues the event on a 100-event buffer and waits only while
that buffer is full (or until Stop); a subscriber with a full buffer
skips the event rather than stalling the broadcast loop.

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for ev := range sub {
			...
		}
	}()

	broker.Publish(&events.Event{Type: events.EventCacheInvalidated, Tenant: "shop"})

This package integrates with pkg/manager (publishes tenant/task events)
and pkg/replication (publishes replication-lag events; fanout itself is
started by the manager calling ReplicateOps directly).
*/
package events
