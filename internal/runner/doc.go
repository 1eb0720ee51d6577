// Package runner drives a complete backup pass and decides the exit code.
//
// A pass is discovery followed by backup of every device found. Only a
// discovery failure is fatal; device failures are reported in the run and
// turn the exit code non-zero.
//
//	ctrl := &runner.Controller{
//	    Discoverer:   discovery.NewScanner(),
//	    Orchestrator: orchestrator,
//	    Window:       10 * time.Second,
//	    OutDir:       "/srv/backups/wled",
//	}
//	run, err := ctrl.Run(ctx)
//	os.Exit(runner.ExitCode(run, err))
package runner
