package session

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/config"
	"github.com/mpapenbr/ledtrack-go/pkg/db/postgres"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
	sessionrepos "github.com/mpapenbr/ledtrack-go/pkg/repository/session"
	telemetryrepos "github.com/mpapenbr/ledtrack-go/pkg/repository/telemetry"
)

func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "lists the stored sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSessions(cmd.Context())
		},
	}
	return cmd
}

func listSessions(ctx context.Context) error {
	logger := log.DevLogger(
		os.Stderr,
		parseLogLevel(config.LogLevel, log.DebugLevel),
		log.WithCaller(true),
		log.AddCallerSkip(1))
	log.ResetDefault(logger)

	waitForDatabase()
	pool := postgres.InitWithUrl(config.DB)
	defer pool.Close()

	sessions, err := sessionrepos.LoadAll(ctx, pool)
	if err != nil {
		log.Error("could not load sessions", log.ErrorField(err))
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions stored")
		return nil
	}

	summaries := make(map[int]*telemetryrepos.Summary, len(sessions))
	for _, item := range sessions {
		summary, sumErr := telemetryrepos.SummaryBySessionId(ctx, pool, item.ID)
		if sumErr != nil {
			log.Error("could not load summary",
				log.String("key", item.Key), log.ErrorField(sumErr))
			return sumErr
		}
		summaries[item.ID] = summary
	}

	header := fmt.Sprintf("%-5s %-36s %-25s %-20s %8s %10s",
		"ID", "KEY", "NAME", "EVENT TIME", "EVENTS", "DURATION")
	rows := lo.Map(sessions, func(item *model.Session, _ int) string {
		summary := summaries[item.ID]
		return fmt.Sprintf("%-5d %-36s %-25s %-20s %8d %10s",
			item.ID,
			item.Key,
			item.Name,
			item.EventTime.Format(time.DateTime),
			summary.Events,
			summary.Duration)
	})
	fmt.Println(header)
	fmt.Println(strings.Join(rows, "\n"))
	return nil
}
