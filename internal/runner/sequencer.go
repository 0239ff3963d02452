package runner

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/enose-collector/internal/backend"
	"github.com/thatsimonsguy/enose-collector/internal/model"
	"github.com/thatsimonsguy/enose-collector/internal/profile"
)

const stepStabilityRetries = 3

// captureStableReading drives one heater step to a usable reading. The
// first conversion after a heater change is discarded, then up to
// stepStabilityRetries conversions run until one reports heat stability.
//
// Returns nil only when every attempt failed transiently; a reading that
// never stabilized is still returned, flagged unstable, so the row carries
// real data. Fatal backend errors propagate.
func captureStableReading(ctx context.Context, b backend.Backend, step profile.Step) (*model.SensorReading, error) {
	durationMS := step.DurationMS()

	// Discard read: the heater plate is still slewing to the new setpoint.
	if _, err := b.ApplyAndReadStep(step.TempC, durationMS); err != nil {
		if !backend.IsTransient(err) {
			return nil, err
		}
		log.Debug().Err(err).Int("temp_c", step.TempC).Msg("Discard read failed")
	}

	var last *model.SensorReading
	for attempt := 0; attempt < stepStabilityRetries; attempt++ {
		if ctx.Err() != nil {
			return last, nil
		}
		candidate, err := b.ApplyAndReadStep(step.TempC, durationMS)
		if err != nil {
			if !backend.IsTransient(err) {
				return nil, err
			}
			log.Debug().Err(err).Int("temp_c", step.TempC).Int("attempt", attempt+1).Msg("Step read failed")
			continue
		}
		last = candidate
		if candidate.HeatStable {
			return candidate, nil
		}
	}
	if last != nil && !last.HeatStable {
		log.Debug().Int("temp_c", step.TempC).Msg("Heater step timed out waiting for heat stability")
	}
	return last, nil
}
