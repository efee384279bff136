package dataset

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/repository"
	geometryrepos "github.com/mpapenbr/ledtrack-go/pkg/repository/geometry"
	sessionrepos "github.com/mpapenbr/ledtrack-go/pkg/repository/session"
	telemetryrepos "github.com/mpapenbr/ledtrack-go/pkg/repository/telemetry"
)

// NewSession prefills the session attributes from the manifest.
// Missing attributes fall back to the key.
func (d *Dataset) NewSession(key string) *model.Session {
	ret := &model.Session{Key: key}
	if d.Manifest != nil {
		ret.Name = d.Manifest.Name
		ret.Description = d.Manifest.Description
		ret.EventTime = d.Manifest.EventTime
		ret.RecorderVersion = d.Manifest.RecorderVersion
	}
	if ret.Name == "" {
		ret.Name = key
	}
	return ret
}

// Store writes a dataset as a new session in one transaction.
// session.ID, ExternalID and RecordStamp are filled on success.
func Store(
	ctx context.Context,
	pool *pgxpool.Pool,
	ds *Dataset,
	session *model.Session,
) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if err := sessionrepos.Create(ctx, tx, session); err != nil {
			return err
		}
		if err := geometryrepos.Save(ctx, tx, session.ID, ds.Grid); err != nil {
			return err
		}
		return telemetryrepos.Save(ctx, tx, session.ID, ds.Events)
	})
}

// LoadByKey reads the stored dataset of a session. Colors are not
// persisted: the returned dataset carries grid and events only.
func LoadByKey(ctx context.Context, conn repository.Querier, key string) (
	*Dataset, *model.Session, error,
) {
	session, err := sessionrepos.LoadByKey(ctx, conn, key)
	if err != nil {
		return nil, nil, err
	}
	grid, err := geometryrepos.LoadBySessionId(ctx, conn, session.ID)
	if err != nil {
		return nil, nil, err
	}
	events, err := telemetryrepos.LoadBySessionId(ctx, conn, session.ID)
	if err != nil {
		return nil, nil, err
	}
	return &Dataset{Grid: grid, Events: events}, session, nil
}
