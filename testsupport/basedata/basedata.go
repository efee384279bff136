package basedata

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/ledtrack-go/pkg/dataset"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
)

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2023-08-27T12:58:56Z")
	return t
}

func SampleGrid() []model.GridPoint {
	return []model.GridPoint{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
}

func SampleEvents() []model.TelemetryEvent {
	base := TestTime()
	return []model.TelemetryEvent{
		{Timestamp: base, EntityID: 44, X: 0, Y: 0, DelayMs: 100},
		{
			Timestamp: base.Add(100 * time.Millisecond),
			EntityID:  1, X: 1, Y: 0, DelayMs: 100,
		},
		{
			Timestamp: base.Add(400 * time.Millisecond),
			EntityID:  44, X: 0, Y: 1, DelayMs: 300,
		},
	}
}

func SampleDataset() *dataset.Dataset {
	return &dataset.Dataset{Grid: SampleGrid(), Events: SampleEvents()}
}

func SampleSession() *model.Session {
	return &model.Session{
		Key:             "sessionKey",
		Name:            "testsession",
		Description:     "testdescription",
		EventTime:       TestTime(),
		RecorderVersion: "0.1.0",
	}
}

// CreateSampleSession stores the sample dataset and returns the session
// with the database assigned attributes filled in.
func CreateSampleSession(db *pgxpool.Pool) *model.Session {
	ctx := context.Background()
	session := SampleSession()
	if err := dataset.Store(ctx, db, SampleDataset(), session); err != nil {
		log.Fatalf("createSampleSession: %v\n", err)
	}
	return session
}
