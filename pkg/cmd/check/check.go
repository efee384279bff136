package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/config"
	"github.com/mpapenbr/ledtrack-go/pkg/dataset"
	"github.com/mpapenbr/ledtrack-go/pkg/db/postgres"
	"github.com/mpapenbr/ledtrack-go/pkg/utils"
)

func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check dir|key",
		Short: "validates a dataset and reports its stats",
		Long: `validates a dataset and reports its stats
The argument is either a dataset directory or the key of a stored
session. Validation is fail fast: the first broken file or row aborts
with an error.
		`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), args[0])
		},
	}
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level", "info", "controls the log level (debug, info, warn, error, fatal)")
	return cmd
}

func runCheck(ctx context.Context, arg string) error {
	logger := log.DevLogger(
		os.Stderr,
		parseLogLevel(config.LogLevel, log.DebugLevel),
		log.WithCaller(true),
		log.AddCallerSkip(1))
	log.ResetDefault(logger)

	var ds *dataset.Dataset
	var name string
	if fi, statErr := os.Stat(arg); statErr == nil && fi.IsDir() {
		var err error
		if ds, err = dataset.LoadDir(arg); err != nil {
			log.Error("dataset invalid", log.ErrorField(err))
			return err
		}
		name = ds.NewSession(filepath.Base(arg)).Name
	} else {
		waitForDatabase()
		pool := postgres.InitWithUrl(config.DB)
		defer pool.Close()
		dsLoaded, sess, err := dataset.LoadByKey(ctx, pool, arg)
		if err != nil {
			log.Error("session not found", log.ErrorField(err))
			return err
		}
		ds = dsLoaded
		name = sess.Name
	}

	printReport(name, ds.Stats())
	return nil
}

func printReport(name string, stats dataset.Stats) {
	fmt.Printf("Session:     %s\n", name)
	fmt.Printf("Grid points: %d\n", stats.GridPoints)
	fmt.Printf("Events:      %d\n", stats.Events)
	fmt.Printf("Entities:    %d\n", stats.Entities)
	fmt.Printf("Lit coords:  %d\n", stats.LitCoords)
	fmt.Printf("Duration:    %s\n", stats.Duration)
	if !stats.First.IsZero() {
		fmt.Printf("First event: %s\n", stats.First.Format(time.RFC3339))
		fmt.Printf("Last event:  %s\n", stats.Last.Format(time.RFC3339))
	}
	if stats.OffGridEvents > 0 {
		fmt.Printf("Warning:     %d events do not match any grid point\n",
			stats.OffGridEvents)
	}
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
