//nolint:whitespace // can't make both editor and linter happy
package geometry

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/repository"
)

// Save stores the layout grid points of a session. The slice index
// becomes the idx column which defines the layout order.
func Save(
	ctx context.Context,
	conn repository.Querier,
	sessionID int,
	points []model.GridPoint,
) error {
	_, err := conn.CopyFrom(ctx,
		pgx.Identifier{"grid_point"},
		[]string{"session_id", "idx", "x", "y"},
		pgx.CopyFromSlice(len(points), func(i int) ([]any, error) {
			return []any{sessionID, i, points[i].X, points[i].Y}, nil
		}))
	return err
}

func LoadBySessionId(
	ctx context.Context,
	conn repository.Querier,
	sessionID int,
) ([]model.GridPoint, error) {
	rows, err := conn.Query(ctx,
		"select x,y from grid_point where session_id=$1 order by idx asc",
		sessionID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.GridPoint])
}

// deletes all grid points of a session, returns number of rows deleted.
func DeleteBySessionId(
	ctx context.Context,
	conn repository.Querier,
	sessionID int,
) (int, error) {
	cmdTag, err := conn.Exec(ctx,
		"delete from grid_point where session_id=$1", sessionID)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}
