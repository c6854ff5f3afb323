// Package export serves aggregate web vitals in Prometheus text exposition
// format: session count plus p75 gauges for score, FCP, LCP, FID, and CLS
// across live sessions. Mounted at /metrics by pagepulsed.
package export
