package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/emergentlab/trgi/internal/config"
	"github.com/emergentlab/trgi/internal/history"
	"github.com/emergentlab/trgi/internal/utils"
)

// SweepJob is one parameter combination of a sweep.
type SweepJob struct {
	J float64
	H float64
}

// SweepResult carries the outcome of one sweep cell. Err is set when the cell
// failed or was cancelled; the remaining fields are only meaningful when Err
// is nil.
type SweepResult struct {
	Job       SweepJob
	RunID     string
	Slope     float64
	Intercept float64
	Recorder  *history.Recorder
	Err       error
}

// RunSweep executes every job on a bounded pool of workers, one independent
// simulation per job. Each cell gets a fresh runner built from the base
// configuration with the job's J and h substituted, so cells never share
// lattice state and are safe to run concurrently. Results come back in job
// order; a cancelled context marks the undispatched cells with ctx.Err().
func RunSweep(ctx context.Context, base *config.Config, repo *history.Repository, jobs []SweepJob, workers int, log zerolog.Logger) []SweepResult {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	log = log.With().Str("component", "sweep").Logger()
	log.Info().Int("jobs", len(jobs)).Int("workers", workers).Msg("Sweep started")

	type indexed struct {
		idx int
		job SweepJob
	}
	feed := make(chan indexed)
	results := make([]SweepResult, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range feed {
				results[it.idx] = runSweepCell(ctx, base, repo, it.job, log)
			}
		}()
	}

dispatch:
	for i, job := range jobs {
		select {
		case <-ctx.Done():
			for j := i; j < len(jobs); j++ {
				results[j] = SweepResult{Job: jobs[j], Err: ctx.Err()}
			}
			break dispatch
		case feed <- indexed{idx: i, job: job}:
		}
	}
	close(feed)
	wg.Wait()

	log.Info().Int("jobs", len(jobs)).Msg("Sweep finished")
	return results
}

// runSweepCell runs one full simulation for a single parameter combination and
// fits the curvature-energy regression over its final state.
func runSweepCell(ctx context.Context, base *config.Config, repo *history.Repository, job SweepJob, log zerolog.Logger) SweepResult {
	res := SweepResult{Job: job}

	cfg := *base
	cfg.Physics.J = job.J
	cfg.Physics.H = job.H

	timer := utils.NewTimer(fmt.Sprintf("sweep J=%g h=%g", job.J, job.H), log)
	defer timer.Stop()

	runner, err := NewRunner(&cfg, repo, log)
	if err != nil {
		res.Err = fmt.Errorf("failed to build simulation: %w", err)
		return res
	}
	res.RunID = runner.RunID()
	res.Recorder = runner.Recorder()

	for i := 0; i < cfg.Run.Steps; i++ {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		if _, err := runner.Step(); err != nil {
			res.Err = err
			return res
		}
	}

	curv, err := runner.CurvatureField()
	if err != nil {
		res.Err = err
		return res
	}
	energyField, err := runner.EnergyField()
	if err != nil {
		res.Err = err
		return res
	}
	res.Slope, res.Intercept, res.Err = RegressFields(curv, energyField)
	if res.Err == nil {
		log.Info().
			Str("run_id", res.RunID).
			Float64("J", job.J).
			Float64("h", job.H).
			Float64("slope", res.Slope).
			Float64("intercept", res.Intercept).
			Msg("Curvature-energy regression")
	}
	return res
}
