//nolint:whitespace // can't make both editor and linter happy
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/repository"
)

var selector = `select ts, entity_id, x, y, delay_ms from telemetry_event`

// Summary describes the stored event log of a session.
type Summary struct {
	Events   int
	Entities int
	Duration time.Duration
	First    time.Time
	Last     time.Time
}

// Save stores the event log of a session. The slice index becomes the
// seq column which defines the playback order.
func Save(
	ctx context.Context,
	conn repository.Querier,
	sessionID int,
	events []model.TelemetryEvent,
) error {
	_, err := conn.CopyFrom(ctx,
		pgx.Identifier{"telemetry_event"},
		[]string{"session_id", "seq", "ts", "entity_id", "x", "y", "delay_ms"},
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			e := &events[i]
			return []any{
				sessionID, i, e.Timestamp, e.EntityID, e.X, e.Y, e.DelayMs,
			}, nil
		}))
	return err
}

func LoadBySessionId(
	ctx context.Context,
	conn repository.Querier,
	sessionID int,
) ([]model.TelemetryEvent, error) {
	rows, err := conn.Query(ctx,
		fmt.Sprintf("%s where session_id=$1 order by seq asc", selector),
		sessionID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.TelemetryEvent])
}

// LoadRange reads events starting at startSeq, at most limit entries.
func LoadRange(
	ctx context.Context,
	conn repository.Querier,
	sessionID int,
	startSeq int,
	limit int,
) ([]model.TelemetryEvent, error) {
	rows, err := conn.Query(ctx,
		fmt.Sprintf("%s where session_id=$1 and seq >= $2 order by seq asc limit $3",
			selector),
		sessionID, startSeq, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.TelemetryEvent])
}

func SummaryBySessionId(
	ctx context.Context,
	conn repository.Querier,
	sessionID int,
) (*Summary, error) {
	row := conn.QueryRow(ctx, `
	select count(*), count(distinct entity_id), coalesce(sum(delay_ms),0),
		min(ts), max(ts)
	from telemetry_event where session_id=$1
		`, sessionID)
	var item Summary
	var delayMs int64
	var first, last *time.Time
	if err := row.Scan(
		&item.Events, &item.Entities, &delayMs, &first, &last,
	); err != nil {
		return nil, err
	}
	item.Duration = time.Duration(delayMs) * time.Millisecond
	if first != nil {
		item.First = *first
	}
	if last != nil {
		item.Last = *last
	}
	return &item, nil
}

// deletes all events of a session, returns number of rows deleted.
func DeleteBySessionId(
	ctx context.Context,
	conn repository.Querier,
	sessionID int,
) (int, error) {
	cmdTag, err := conn.Exec(ctx,
		"delete from telemetry_event where session_id=$1", sessionID)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}
