//nolint:whitespace // can't make both editor and linter happy
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/repository"
)

var ErrNoSuchSession = errors.New("no such session")

var selector = `select id, session_key, external_id, name, coalesce(description,''),
	event_time, recorder_version, record_stamp from session`

func Create(ctx context.Context, conn repository.Querier, session *model.Session) error {
	row := conn.QueryRow(ctx, `
	insert into session (
		session_key, name, description, event_time, recorder_version
	) values ($1,$2,$3,$4,$5)
	returning id, external_id, record_stamp
		`,
		session.Key, session.Name, session.Description, session.EventTime,
		session.RecorderVersion,
	)
	if err := row.Scan(
		&session.ID, &session.ExternalID, &session.RecordStamp,
	); err != nil {
		return err
	}
	return nil
}

func LoadById(ctx context.Context, conn repository.Querier, id int) (
	*model.Session, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where id=$1", selector), id)
	return readData(row)
}

func LoadByKey(ctx context.Context, conn repository.Querier, key string) (
	*model.Session, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where session_key=$1", selector), key)
	return readData(row)
}

func LoadAll(ctx context.Context, conn repository.Querier) (
	[]*model.Session, error,
) {
	rows, err := conn.Query(ctx,
		fmt.Sprintf("%s order by record_stamp desc", selector))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows,
		func(row pgx.CollectableRow) (*model.Session, error) {
			return readData(row)
		})
}

// deletes an entry from the database, returns number of rows deleted.
func DeleteById(ctx context.Context, conn repository.Querier, id int) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from session where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func DeleteByKey(ctx context.Context, conn repository.Querier, key string) (
	int, error,
) {
	cmdTag, err := conn.Exec(ctx, "delete from session where session_key=$1", key)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func readData(row pgx.Row) (*model.Session, error) {
	var item model.Session
	if err := row.Scan(
		&item.ID, &item.Key, &item.ExternalID, &item.Name, &item.Description,
		&item.EventTime, &item.RecorderVersion, &item.RecordStamp,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSuchSession
		}
		return nil, err
	}
	return &item, nil
}
