//nolint:dupl,funlen,errcheck //ok for this test code
package telemetry

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
	sessionrepos "github.com/mpapenbr/ledtrack-go/pkg/repository/session"
	"github.com/mpapenbr/ledtrack-go/testsupport/testdb"
)

func baseTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2023-08-27T12:58:56Z")
	return t
}

func sampleEvents() []model.TelemetryEvent {
	base := baseTime()
	return []model.TelemetryEvent{
		{Timestamp: base, EntityID: 44, X: 0, Y: 0, DelayMs: 100},
		{Timestamp: base.Add(100 * time.Millisecond), EntityID: 1, X: 1, Y: 0, DelayMs: 100},
		{Timestamp: base.Add(400 * time.Millisecond), EntityID: 44, X: 0, Y: 1, DelayMs: 300},
	}
}

func createSampleSession(db *pgxpool.Pool) *model.Session {
	ctx := context.Background()
	session := &model.Session{Key: "sessionKey", Name: "testsession", EventTime: baseTime()}
	err := pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		return sessionrepos.Create(ctx, tx, session)
	})
	if err != nil {
		log.Fatalf("createSampleSession: %v\n", err)
	}
	return session
}

func createSampleEvents(db *pgxpool.Pool, sessionID int) []model.TelemetryEvent {
	ctx := context.Background()
	events := sampleEvents()
	err := pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		return Save(ctx, tx, sessionID, events)
	})
	if err != nil {
		log.Fatalf("createSampleEvents: %v\n", err)
	}
	return events
}

func TestSaveAndLoad(t *testing.T) {
	pool := testdb.InitTestDb()
	session := createSampleSession(pool)
	events := createSampleEvents(pool, session.ID)
	ctx := context.Background()
	pool.AcquireFunc(ctx, func(c *pgxpool.Conn) error {
		got, err := LoadBySessionId(ctx, c.Conn(), session.ID)
		if err != nil {
			t.Errorf("LoadBySessionId() error = %v", err)
			return err
		}
		// order by seq must reproduce the recorded order
		if diff := cmp.Diff(events, got); diff != "" {
			t.Errorf("LoadBySessionId() mismatch (-want +got):\n%s", diff)
		}
		return nil
	})
}

func TestLoadRange(t *testing.T) {
	pool := testdb.InitTestDb()
	session := createSampleSession(pool)
	events := createSampleEvents(pool, session.ID)
	type args struct {
		startSeq int
		limit    int
	}
	tests := []struct {
		name string
		args args
		want []model.TelemetryEvent
	}{
		{
			name: "all",
			args: args{startSeq: 0, limit: 10},
			want: events,
		},
		{
			name: "tail",
			args: args{startSeq: 1, limit: 10},
			want: events[1:],
		},
		{
			name: "limited",
			args: args{startSeq: 0, limit: 2},
			want: events[0:2],
		},
		{
			name: "beyond end",
			args: args{startSeq: 10, limit: 10},
			want: []model.TelemetryEvent{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			got, err := LoadRange(ctx, pool, session.ID, tt.args.startSeq, tt.args.limit)
			if err != nil {
				t.Errorf("LoadRange() error = %v", err)
				return
			}
			if len(tt.want) == 0 && len(got) == 0 {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("LoadRange() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSummaryBySessionId(t *testing.T) {
	pool := testdb.InitTestDb()
	session := createSampleSession(pool)
	createSampleEvents(pool, session.ID)
	ctx := context.Background()
	got, err := SummaryBySessionId(ctx, pool, session.ID)
	if err != nil {
		t.Fatalf("SummaryBySessionId() error = %v", err)
	}
	if got.Events != 3 || got.Entities != 2 {
		t.Errorf("counts = %d events, %d entities, want 3,2", got.Events, got.Entities)
	}
	if got.Duration != 500*time.Millisecond {
		t.Errorf("Duration = %v, want 500ms", got.Duration)
	}
	if !got.First.Equal(baseTime()) {
		t.Errorf("First = %v, want %v", got.First, baseTime())
	}
	if !got.Last.Equal(baseTime().Add(400 * time.Millisecond)) {
		t.Errorf("Last = %v", got.Last)
	}
}

func TestSummaryEmpty(t *testing.T) {
	pool := testdb.InitTestDb()
	session := createSampleSession(pool)
	ctx := context.Background()
	got, err := SummaryBySessionId(ctx, pool, session.ID)
	if err != nil {
		t.Fatalf("SummaryBySessionId() error = %v", err)
	}
	if got.Events != 0 || got.Entities != 0 || got.Duration != 0 {
		t.Errorf("summary of empty session = %+v, want zeros", got)
	}
	if !got.First.IsZero() || !got.Last.IsZero() {
		t.Errorf("First/Last of empty session should stay zero, got %+v", got)
	}
}

func TestDeleteBySessionId(t *testing.T) {
	pool := testdb.InitTestDb()
	session := createSampleSession(pool)
	createSampleEvents(pool, session.ID)
	ctx := context.Background()
	got, err := DeleteBySessionId(ctx, pool, session.ID)
	if err != nil {
		t.Fatalf("DeleteBySessionId() error = %v", err)
	}
	if got != 3 {
		t.Errorf("DeleteBySessionId() = %v, want 3", got)
	}
}
