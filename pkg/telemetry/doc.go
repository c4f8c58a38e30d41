// Package telemetry provides fiber.Observer implementations that export
// render activity.
//
// Metrics records Prometheus counters and histograms per root:
//
//   - loom_generations_total{root,outcome}: finished generations, by
//     outcome (committed, aborted, superseded)
//   - loom_units_total{root}: units of work performed
//   - loom_slices_total{root}: WorkLoop slices that performed work
//   - loom_effects_total{root,effect}: committed placements, updates and
//     deletions
//   - loom_build_duration_seconds{root}: seed to commit start
//   - loom_commit_duration_seconds{root}: commit phase
//   - loom_generations_in_flight{root}: generations being built
//
// Tracer records one OpenTelemetry span per generation, with an event per
// yielded slice.
//
// Combine them with fiber.Observers:
//
//	obs := fiber.Observers{telemetry.NewMetrics(), telemetry.NewTracer()}
package telemetry
