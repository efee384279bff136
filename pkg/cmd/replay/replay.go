package replay

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	natsio "github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/colors"
	"github.com/mpapenbr/ledtrack-go/pkg/config"
	"github.com/mpapenbr/ledtrack-go/pkg/dataset"
	"github.com/mpapenbr/ledtrack-go/pkg/db/postgres"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/replay"
	"github.com/mpapenbr/ledtrack-go/pkg/sink"
	"github.com/mpapenbr/ledtrack-go/pkg/sink/jsonl"
	natssink "github.com/mpapenbr/ledtrack-go/pkg/sink/nats"
	"github.com/mpapenbr/ledtrack-go/pkg/utils"
)

var (
	speed     int
	catchUp   bool
	maxFrames int
	emitIdle  bool
	output    string
)

//nolint:funlen // by design
func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "plays back a session without the server",
		Long: `plays back a session without the server
The composed frames are written as JSON lines to stdout (or a file)
and optionally published to NATS.
		`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&config.Session,
		"session", "", "key of the session to replay")
	cmd.Flags().StringVar(&config.DatasetDir,
		"dir", "", "replay a dataset from this directory instead of the database")
	cmd.Flags().StringVar(&config.ColorsFile,
		"colors", "", "file containing entity color assignments")
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level", "info", "controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().IntVar(&config.FPS,
		"fps", 30, "frames per second for the playback loop")
	cmd.Flags().IntVar(&speed,
		"speed", 1, "playback speed (0 means: go as fast as possible)")
	cmd.Flags().BoolVar(&catchUp,
		"catch-up", false, "consume all due events per tick instead of one")
	cmd.Flags().IntVar(&maxFrames,
		"max-frames", 0, "stop after this many frames (0 means: play to the end)")
	cmd.Flags().BoolVar(&emitIdle,
		"emit-idle-frames", false, "also emit frames when no event was consumed")
	cmd.Flags().StringVarP(&output,
		"output", "o", "-", "write frames to this file (- means: stdout)")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url", "", "if set, frames are also published to this NATS server")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

//nolint:funlen,cyclop // by design
func runReplay(mainCtx context.Context) error {
	logger := log.DevLogger(
		os.Stderr,
		parseLogLevel(config.LogLevel, log.DebugLevel),
		log.WithCaller(true),
		log.AddCallerSkip(1))
	log.ResetDefault(logger)

	var pool *pgxpool.Pool
	if config.DatasetDir == "" {
		waitForDatabase()
		pool = postgres.InitWithUrl(config.DB)
		defer pool.Close()
	}

	ds, session, err := resolveDataset(mainCtx, pool)
	if err != nil {
		log.Error("could not load dataset", log.ErrorField(err))
		return err
	}
	table := ds.ColorTable()
	if config.ColorsFile != "" {
		if table, err = colors.Load(config.ColorsFile); err != nil {
			log.Error("could not load color table", log.ErrorField(err))
			return err
		}
	}
	stats := ds.Stats()
	log.Info("Replaying session",
		log.String("key", session.Key),
		log.Int("events", stats.Events),
		log.Duration("duration", stats.Duration),
		log.Int("speed", speed))

	engineOpts := []replay.Option{}
	if catchUp || speed != 1 {
		engineOpts = append(engineOpts, replay.WithCatchUp())
	}
	engine := replay.NewEngine(ds.Events, engineOpts...)
	comp := replay.NewCompositor(ds.Grid, replay.WithColorTable(table))

	out, err := buildSink(session.Key)
	if err != nil {
		log.Error("could not setup output", log.ErrorField(err))
		return err
	}

	ctx, cancel := context.WithCancel(mainCtx)
	defer cancel()

	var runnerSink sink.Sink = out
	if maxFrames > 0 {
		runnerSink = &frameLimit{Sink: out, remaining: maxFrames, cancel: cancel}
	}
	runnerOpts := []replay.RunnerOption{
		replay.WithSink(runnerSink),
		replay.WithSessionKey(session.Key),
		replay.WithFPS(config.FPS),
		replay.WithStopWhenDone(),
	}
	if !emitIdle {
		runnerOpts = append(runnerOpts, replay.WithEmitOnAdvanceOnly())
	}
	if speed != 1 {
		runnerOpts = append(runnerOpts, replay.WithClock(scaledClock(speed)))
	}
	runner := replay.NewRunner(engine, comp, runnerOpts...)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt)
		select {
		case v := <-sigChan:
			log.Debug("Got signal ", log.Any("signal", v))
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info("Starting replay")
	runner.Start()
	if err := runner.Run(ctx); err != nil {
		return err
	}
	if closeErr := out.Close(); closeErr != nil {
		log.Warn("error closing sinks", log.ErrorField(closeErr))
	}
	log.Info("Replay done")
	return nil
}

func buildSink(sessionKey string) (sink.Sink, error) {
	sinks := []sink.Sink{}
	switch output {
	case "":
		// no local output (useful together with --nats-url)
	case "-":
		sinks = append(sinks, jsonl.New(os.Stdout))
	default:
		f, err := os.Create(output)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, jsonl.New(f))
	}
	if config.NatsURL != "" {
		nc, err := natsio.Connect(config.NatsURL)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, natssink.NewSink(nc, sessionKey))
	}
	if len(sinks) == 0 {
		return nil, errors.New("no output configured (use --output or --nats-url)")
	}
	return sink.NewMulti(sinks...), nil
}

//nolint:whitespace // can't make both editor and linter happy
func resolveDataset(ctx context.Context, pool *pgxpool.Pool) (
	*dataset.Dataset, *model.Session, error,
) {
	if config.DatasetDir != "" {
		ds, err := dataset.LoadDir(config.DatasetDir)
		if err != nil {
			return nil, nil, err
		}
		key := config.Session
		if key == "" {
			key = filepath.Base(config.DatasetDir)
		}
		return ds, ds.NewSession(key), nil
	}
	if config.Session == "" {
		return nil, nil, errors.New("no session key given (use --session or --dir)")
	}
	return dataset.LoadByKey(ctx, pool, config.Session)
}

func waitForDatabase() {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}
	postgresAddr := utils.ExtractFromDBURL(config.DB)
	if err = utils.WaitForTCP(postgresAddr, timeout); err != nil {
		log.Fatal("database  not ready", log.ErrorField(err))
	}
}

// scaledClock returns a clock that advances speed times faster than the
// wall clock. A speed of 0 jumps a full day per reading which drains
// any recording within a few ticks.
func scaledClock(speed int) func() time.Time {
	if speed <= 0 {
		base := time.Now()
		var calls int64
		return func() time.Time {
			calls++
			return base.Add(time.Duration(calls) * 24 * time.Hour)
		}
	}
	start := time.Now()
	return func() time.Time {
		return start.Add(time.Duration(speed) * time.Since(start))
	}
}

// frameLimit cancels the playback context once the configured number of
// frames was delivered.
type frameLimit struct {
	sink.Sink
	remaining int
	cancel    context.CancelFunc
}

func (f *frameLimit) SinkFrame(frame *model.Frame) error {
	err := f.Sink.SinkFrame(frame)
	if f.remaining > 0 {
		f.remaining--
		if f.remaining == 0 {
			f.cancel()
		}
	}
	return err
}
