// Package health provides liveness, readiness and version endpoints for
// "harvest serve".
//
// # Endpoints
//
//   - /health: the process is running
//   - /ready: every registered component check passes
//   - /version: build information
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("storage", func(ctx context.Context) error {
//	    _, err := store.Count(ctx, &submission.Query{})
//	    return err
//	})
//	checker.RegisterCheck("scheduler", func(context.Context) error {
//	    if !scheduler.IsRunning() {
//	        return errors.New("scheduler not running")
//	    }
//	    return nil
//	})
//
//	mux := http.NewServeMux()
//	health.Register(mux, checker, version, commit, buildDate)
//
// Checks run concurrently, each bounded by the checker timeout. A check
// that does not return in time is reported as unhealthy.
package health
