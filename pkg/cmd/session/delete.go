package session

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/config"
	"github.com/mpapenbr/ledtrack-go/pkg/db/postgres"
	sessionrepos "github.com/mpapenbr/ledtrack-go/pkg/repository/session"
)

func NewDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete key",
		Short: "deletes a stored session including its grid and event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteSession(cmd.Context(), args[0])
		},
	}
	return cmd
}

func deleteSession(ctx context.Context, key string) error {
	logger := log.DevLogger(
		os.Stderr,
		parseLogLevel(config.LogLevel, log.DebugLevel),
		log.WithCaller(true),
		log.AddCallerSkip(1))
	log.ResetDefault(logger)

	waitForDatabase()
	pool := postgres.InitWithUrl(config.DB)
	defer pool.Close()

	// grid and events go with the session (delete cascades)
	num, err := sessionrepos.DeleteByKey(ctx, pool, key)
	if err != nil {
		log.Error("could not delete session", log.ErrorField(err))
		return err
	}
	if num == 0 {
		return fmt.Errorf("%w: %s", sessionrepos.ErrNoSuchSession, key)
	}
	log.Info("Session deleted", log.String("key", key))
	return nil
}
