package sweep

import (
	"github.com/rs/zerolog"
)

// CalibrationJob re-runs the default scenario on a schedule so stored
// cost curves stay fresh.
type CalibrationJob struct {
	service *Service
	workers int
	log     zerolog.Logger
}

// NewCalibrationJob creates the nightly calibration job.
func NewCalibrationJob(service *Service, log zerolog.Logger) *CalibrationJob {
	return &CalibrationJob{
		service: service,
		log:     log.With().Str("job", "calibration-sweep").Logger(),
	}
}

// SetWorkers overrides the scenario's worker count.
func (j *CalibrationJob) SetWorkers(n int) {
	j.workers = n
}

// Name implements scheduler.Job.
func (j *CalibrationJob) Name() string {
	return "calibration-sweep"
}

// Run implements scheduler.Job.
func (j *CalibrationJob) Run() error {
	scenario := DefaultScenario()
	if j.workers > 0 {
		scenario.Workers = j.workers
	}
	res, err := j.service.Run(scenario)
	if err != nil {
		return err
	}
	j.log.Info().
		Str("run_id", res.ID).
		Interface("slopes", res.Slopes).
		Msg("Calibration sweep finished")
	return nil
}
