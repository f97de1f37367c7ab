// Package scheduler drives RenderJobs through an engine.Pool.
//
// Two drivers are provided:
//   - Batch submits a fixed number of jobs, shuts the pool down gracefully
//     and waits up to a budget; on timeout it drops jobs that never started.
//   - Periodic runs one body at a time with a fixed delay between the end of
//     one run and the start of the next, then force-stops after a budget.
//
// Schedules are parsed by ParseSchedule (Go duration, HH:MM or cron).
package scheduler
