package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/enose-collector/internal/backend"
	"github.com/thatsimonsguy/enose-collector/internal/config"
	"github.com/thatsimonsguy/enose-collector/internal/logging"
	"github.com/thatsimonsguy/enose-collector/internal/metrics"
	"github.com/thatsimonsguy/enose-collector/internal/profile"
	"github.com/thatsimonsguy/enose-collector/internal/runlog"
	"github.com/thatsimonsguy/enose-collector/internal/runner"
	"github.com/thatsimonsguy/enose-collector/internal/status"
	"github.com/thatsimonsguy/enose-collector/internal/store"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile)

	if cfg.ListProfiles {
		listProfiles()
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	metrics.Init(cfg.DDAgentAddr, cfg.DDNamespace, cfg.DDTags)

	md, err := config.ResolveMetadata(cfg.Meta)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid sample metadata")
	}

	settings := store.New(store.DefaultPath())
	p, hash, err := resolveProfile(cfg.ProfileFile, settings)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve profile")
	}
	if cfg.DwellSec >= 0 {
		p = p.WithDwell(cfg.DwellSec)
	}
	log.Info().
		Str("profile", p.Name).
		Str("hash", hash).
		Str("backend", p.Backend).
		Float64("dwell_sec", p.DwellSec).
		Msg("Profile resolved")

	b, err := backend.Build(p, cfg.BridgeExe, cfg.I2CBus)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize sensor backend")
	}

	runCfg := runner.RunConfig{
		Profile:      p,
		Metadata:     md,
		Backend:      b,
		ProfileHash:  hash,
		CyclesTarget: cfg.Cycles,
		SkipCycles:   cfg.SkipCycles,
		OutputRoot:   cfg.OutputRoot,
	}

	if cfg.MQTTBroker != "" {
		pub, err := status.Connect(cfg.MQTTBroker, cfg.MQTTTopic, cfg.MQTTClientID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect status publisher")
		}
		defer pub.Close()
		runCfg.Observer = pub
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()
	run := runner.New(runCfg)
	outPath, runErr := run.Run(ctx)
	finishedAt := time.Now()

	recordRun(cfg.RunlogDB, runlog.Run{
		StartedAt:      startedAt,
		FinishedAt:     finishedAt,
		SampleName:     md.SampleName,
		SpecimenID:     md.SpecimenID,
		Storage:        md.Storage,
		Notes:          md.Notes,
		ProfileName:    p.Name,
		ProfileHash:    hash,
		Backend:        p.Backend,
		OutputPath:     outPath,
		CapturedCycles: run.CapturedCycles(),
	}, runErr, ctx.Err() != nil)

	if runErr != nil {
		log.Fatal().Err(runErr).Msg("Run failed")
	}
	log.Info().Str("path", outPath).Msg("Run complete")
}

func listProfiles() {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBACKEND\tSTEPS\tCYCLE\tDWELL")
	for _, p := range profile.Defaults() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1fs\t%.1fs\n",
			p.Name, p.Backend, len(p.Steps), p.EstimatedCycleLengthSec(), p.DwellSec)
	}
	w.Flush()
}

// resolveProfile picks, in order: the -profile flag, the last used
// profile, a built-in default. The chosen path is remembered for next
// time.
func resolveProfile(path string, settings *store.Store) (*profile.Profile, string, error) {
	if path == "" {
		if saved, err := settings.Load(); err == nil && saved.LastProfilePath != "" {
			path = saved.LastProfilePath
			log.Info().Str("path", path).Msg("Using last profile")
		}
	}
	if path == "" {
		p := profile.Default()
		hash, err := p.Hash()
		if err != nil {
			return nil, "", err
		}
		return p, hash, nil
	}

	p, err := profile.Load(path)
	if err != nil {
		return nil, "", err
	}
	hash, err := p.Hash()
	if err != nil {
		return nil, "", err
	}
	if err := settings.Save(&store.Settings{LastProfilePath: path}); err != nil {
		log.Warn().Err(err).Msg("Failed to remember profile path")
	}
	return p, hash, nil
}

func recordRun(dbPath string, r runlog.Run, runErr error, stopped bool) {
	switch {
	case runErr != nil:
		r.Status = runlog.StatusFailed
		r.Error = runErr.Error()
	case stopped:
		r.Status = runlog.StatusStopped
	default:
		r.Status = runlog.StatusCompleted
	}

	db, err := runlog.Open(dbPath)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to open run registry")
		return
	}
	defer db.Close()
	if _, err := db.Record(r); err != nil {
		log.Warn().Err(err).Msg("Failed to record run")
	}
}
