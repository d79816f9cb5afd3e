/*
Package metrics exposes the hivefs runtime counters.

Counters is the atomic bookkeeping the lifecycle core feeds: live
filesystem objects, live metadata objects, resident cached I/O units
and the unit soft cap. Collector publishes those counters as
Prometheus gauges on a private registry and serves them over HTTP for
scraping.
*/
package metrics
