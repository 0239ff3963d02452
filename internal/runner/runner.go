package runner

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/enose-collector/internal/backend"
	"github.com/thatsimonsguy/enose-collector/internal/metrics"
	"github.com/thatsimonsguy/enose-collector/internal/model"
	"github.com/thatsimonsguy/enose-collector/internal/profile"
)

const (
	defaultWarmupSeconds   = 10
	maxConsecutiveFailures = 10
	dwellChunk             = 250 * time.Millisecond
)

// Observer receives every row as it is produced, plus dwell notifications.
// Callbacks run synchronously on the run goroutine; consumers that touch
// shared state must hand off themselves.
type Observer interface {
	Row(Row)
	Dwell(seconds float64)
}

// RunConfig describes one acquisition run.
type RunConfig struct {
	Profile     *profile.Profile
	Metadata    model.Metadata
	Backend     backend.Backend
	ProfileHash string

	CyclesTarget int
	SkipCycles   int
	OutputRoot   string

	// WarmupSeconds of continuous conversions before the first cycle.
	// Zero means the default; negative disables warmup.
	WarmupSeconds int

	Observer Observer
}

// Runner executes the warmup, skip and capture cycles of a run and owns
// the run's CSV output. One Runner drives one run on one goroutine; the
// backend is not shared.
type Runner struct {
	cfg                 RunConfig
	consecutiveFailures int
	logger              *csvLogger
	lastRowAt           time.Time
	captured            int
}

// CapturedCycles reports how many capture cycles completed so far.
func (r *Runner) CapturedCycles() int {
	return r.captured
}

func New(cfg RunConfig) *Runner {
	return &Runner{cfg: cfg}
}

// Run executes the full acquisition and returns the output CSV path.
// Context cancellation is a clean stop: output is flushed and the path is
// returned without error. The backend is closed on all paths.
func (r *Runner) Run(ctx context.Context) (string, error) {
	p := r.cfg.Profile
	md := r.cfg.Metadata
	if err := p.Validate(); err != nil {
		return "", err
	}
	if err := md.Validate(); err != nil {
		return "", err
	}
	defer r.cfg.Backend.Close()

	log.Info().
		Str("sample", md.SampleName).
		Str("profile", p.Name).
		Int("cycles_target", r.cfg.CyclesTarget).
		Int("skip_cycles", r.cfg.SkipCycles).
		Msg("Starting acquisition run")

	outputRoot := r.cfg.OutputRoot
	if outputRoot == "" {
		outputRoot = "logs"
	}
	outPath := buildLogPath(outputRoot, md.SampleName, time.Now())
	logger, err := newCSVLogger(outPath)
	if err != nil {
		return "", err
	}
	r.logger = logger
	defer r.logger.Close()

	if err := r.warmup(ctx); err != nil {
		return "", err
	}

	skip := r.cfg.SkipCycles
	if skip < 0 {
		skip = 0
	}
	totalCycles := skip + r.cfg.CyclesTarget

	for cycleIndex := 0; cycleIndex < totalCycles; cycleIndex++ {
		if ctx.Err() != nil {
			break
		}
		isWarmupCycle := cycleIndex < skip
		if err := r.runCycle(ctx, cycleIndex, isWarmupCycle); err != nil {
			return "", err
		}
		if ctx.Err() != nil {
			break
		}
		if isWarmupCycle {
			continue
		}
		r.captured++
		metrics.Gauge("run.captured_cycles", float64(r.captured))
		if p.DwellSec > 0 && cycleIndex < totalCycles-1 {
			r.dwell(ctx, p.DwellSec)
		}
	}

	log.Info().
		Int("captured_cycles", r.captured).
		Int("skip_cycles", skip).
		Str("path", outPath).
		Msg("Run finished")
	return outPath, nil
}

func (r *Runner) runCycle(ctx context.Context, cycleIndex int, warmupCycle bool) error {
	for i, step := range r.cfg.Profile.Steps {
		if ctx.Err() != nil {
			return nil
		}
		reading, err := captureStableReading(ctx, r.cfg.Backend, step)
		if err != nil {
			return err
		}
		row := r.buildRow(cycleIndex, i+1, step, reading, warmupCycle)
		if r.cfg.Observer != nil {
			r.cfg.Observer.Row(row)
		}
		if warmupCycle {
			continue
		}
		if err := r.logger.WriteRow(row); err != nil {
			return err
		}
		metrics.Incr("run.rows")
		if reading == nil {
			r.consecutiveFailures++
			metrics.Gauge("run.consecutive_failures", float64(r.consecutiveFailures))
			if r.consecutiveFailures > maxConsecutiveFailures {
				return &backend.Error{
					Backend: r.cfg.Profile.Backend,
					Op:      "capture",
					Err:     errors.New("too many consecutive sensor read failures"),
				}
			}
		} else {
			r.consecutiveFailures = 0
			metrics.Gauge("run.gas_resistance_ohm", reading.GasResistance,
				"heater_temp:"+strconv.Itoa(step.TempC))
		}
	}
	return nil
}

// warmup runs conversions back to back for a fixed wall-clock window so
// the heater plate thermally settles. Readings are discarded; transient
// failures are expected here.
func (r *Runner) warmup(ctx context.Context) error {
	seconds := r.cfg.WarmupSeconds
	if seconds == 0 {
		seconds = defaultWarmupSeconds
	}
	if seconds < 0 {
		return nil
	}
	log.Info().Int("seconds", seconds).Msg("Warming up sensor")
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		for _, step := range r.cfg.Profile.Steps {
			if _, err := r.cfg.Backend.ApplyAndReadStep(step.TempC, step.DurationMS()); err != nil {
				if !backend.IsTransient(err) {
					return err
				}
			}
			if !time.Now().Before(deadline) || ctx.Err() != nil {
				break
			}
		}
	}
	return nil
}

// dwell sleeps between capture cycles in short chunks so cancellation is
// observed promptly.
func (r *Runner) dwell(ctx context.Context, seconds float64) {
	if r.cfg.Observer != nil {
		r.cfg.Observer.Dwell(seconds)
	}
	deadline := time.Now().Add(time.Duration(seconds * float64(time.Second)))
	for time.Now().Before(deadline) {
		remaining := time.Until(deadline)
		if remaining > dwellChunk {
			remaining = dwellChunk
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(remaining):
		}
	}
}

func (r *Runner) buildRow(cycleIndex, stepIndex int, step profile.Step, reading *model.SensorReading, warmup bool) Row {
	now := time.Now().UTC()
	elapsed := 0.0
	if !r.lastRowAt.IsZero() {
		elapsed = now.Sub(r.lastRowAt).Seconds()
	}
	r.lastRowAt = now

	row := Row{
		TimestampUTC:  now.Format(time.RFC3339Nano),
		ElapsedSec:    elapsed,
		CycleIndex:    cycleIndex,
		StepIndex:     stepIndex,
		HeaterTempC:   step.TempC,
		DurationTicks: step.Ticks,
		DurationMS:    step.DurationMS(),
		HeatStable:    false,
		StatusRaw:     math.NaN(),
		GasResistance: math.NaN(),
		Temperature:   math.NaN(),
		Humidity:      math.NaN(),
		Pressure:      math.NaN(),
		Backend:       r.cfg.Profile.Backend,
		I2CAddr:       r.cfg.Profile.I2CAddr,
		SampleName:    r.cfg.Metadata.SampleName,
		SpecimenID:    r.cfg.Metadata.SpecimenID,
		Storage:       r.cfg.Metadata.Storage,
		Notes:         r.cfg.Metadata.Notes,
		ProfileName:   r.cfg.Profile.Name,
		ProfileHash:   r.cfg.ProfileHash,
		WarmupCycle:   warmup,
	}
	if reading != nil {
		row.HeatStable = reading.HeatStable
		row.GasResistance = reading.GasResistance
		row.Temperature = reading.Temperature
		row.Humidity = reading.Humidity
		row.Pressure = reading.Pressure
		if reading.HasStatus() {
			row.StatusRaw = float64(reading.Status)
		}
	}
	return row
}
