package session

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/config"
	"github.com/mpapenbr/ledtrack-go/pkg/utils"
)

func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "commands to manage stored sessions",
	}

	cmd.PersistentFlags().StringVar(&config.LogLevel,
		"log-level", "info", "controls the log level (debug, info, warn, error, fatal)")

	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewDeleteCmd())
	return cmd
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
