// Package telemetry records store activity as Prometheus metrics and
// OpenTelemetry spans.
//
// An Observer plugs into a store through store.WithObserver:
//
//	obs := telemetry.New(telemetry.WithNamespace("myapp"))
//	st := store.New(initial, selectors, store.WithObserver(obs))
//	http.Handle("/metrics", obs.Handler())
//
// Metrics collected (namespace "storekit" by default):
//   - storekit_changes_total: Change Notifications by top-level key
//   - storekit_rerenders_total: view re-renders triggered by the store
//   - storekit_selector_computations_total: selector recomputes by name
//   - storekit_selector_duration_seconds: selector recompute duration
//   - storekit_subscriptions: live view subscriptions
//   - storekit_patches_total: patches by status
//   - storekit_patch_duration_seconds: patch duration, including re-renders
//
// Each patch is also traced as a "storekit.patch" span from the global
// tracer provider unless WithTracer is given.
package telemetry
