// Package schedule runs recurring submission exports on cron schedules.
//
// A Runner executes one Job: it streams the job's submissions from storage
// through the registered exporter into a file under the output directory.
// The file is written under a temporary name and renamed once the export
// succeeds, so readers never observe partial files.
//
// A Scheduler registers every job with robfig/cron using standard five-field
// expressions ("0 3 * * *" for daily at 3 AM). Runs of the same job never
// overlap; a run still in progress causes the next tick to be skipped.
package schedule
