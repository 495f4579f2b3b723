/*
Package metrics defines and registers flapjack's Prometheus metrics:
tenant/document counts, write-queue depth and task outcomes, search
request rate and latency, oplog append latency and segment counts,
replication lag and fanout outcomes, and memory pressure.

Metrics are served via Handler() on the same /metrics endpoint pattern
used for health and readiness. Timer is a small helper for observing
elapsed durations into a histogram or histogram vec.
*/
package metrics
