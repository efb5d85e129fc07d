// Package metrics provides the observability hooks for pipeline builds and
// traced stages.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so call sites never nil-check:
//
//	tracer, _ := trace.NewTracer(node, identity, suffix, sink,
//	    trace.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the registry it is given;
// HTTPHandler exposes that registry for scraping (used by `treetracer watch
// --metrics-addr`).
package metrics
