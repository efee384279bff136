package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/config"
	"github.com/mpapenbr/ledtrack-go/pkg/dataset"
	"github.com/mpapenbr/ledtrack-go/pkg/db/postgres"
	"github.com/mpapenbr/ledtrack-go/pkg/utils"
)

var (
	sessionKey  string
	name        string
	description string
	eventTime   string
)

func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import dir",
		Short: "imports a recorded dataset into the database",
		Long: `imports a recorded dataset into the database
The directory must contain the LED layout and the event log. Manifest
attributes may be overridden by flags. On success the session key is
printed to stdout.
		`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args[0])
		},
	}
	cmd.Flags().StringVar(&sessionKey,
		"key", "", "session key (default: a generated UUID)")
	cmd.Flags().StringVar(&name,
		"name", "", "session name (overrides the manifest)")
	cmd.Flags().StringVar(&description,
		"description", "", "session description (overrides the manifest)")
	cmd.Flags().StringVar(&eventTime,
		"event-time", "", "time of the recorded event, RFC3339 (overrides the manifest)")
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level", "info", "controls the log level (debug, info, warn, error, fatal)")
	return cmd
}

func runImport(ctx context.Context, dir string) error {
	logger := log.DevLogger(
		os.Stderr,
		parseLogLevel(config.LogLevel, log.DebugLevel),
		log.WithCaller(true),
		log.AddCallerSkip(1))
	log.ResetDefault(logger)

	ds, err := dataset.LoadDir(dir)
	if err != nil {
		log.Error("could not load dataset", log.ErrorField(err))
		return err
	}

	key := sessionKey
	if key == "" {
		key = uuid.New().String()
	}
	session := ds.NewSession(key)
	if name != "" {
		session.Name = name
	}
	if description != "" {
		session.Description = description
	}
	if eventTime != "" {
		t, parseErr := time.Parse(time.RFC3339, eventTime)
		if parseErr != nil {
			log.Error("invalid event-time", log.ErrorField(parseErr))
			return parseErr
		}
		session.EventTime = t
	}

	waitForDatabase()
	pool := postgres.InitWithUrl(config.DB)
	defer pool.Close()

	if err := dataset.Store(ctx, pool, ds, session); err != nil {
		log.Error("could not store dataset", log.ErrorField(err))
		return err
	}
	stats := ds.Stats()
	log.Info("Dataset imported",
		log.String("key", session.Key),
		log.Int("id", session.ID),
		log.Int("gridPoints", stats.GridPoints),
		log.Int("events", stats.Events))
	fmt.Println(session.Key)
	return nil
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
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
