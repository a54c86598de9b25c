package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/bengkelink/bengkelink-web/internal/data/pgxutil"
	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// ProfileRepo reads rows of the profiles table.
type ProfileRepo struct {
	DB *sql.DB
}

var _ ports.ProfileRepository = (*ProfileRepo)(nil)

// NewProfileRepo creates a new ProfileRepo.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db}
}

// QueryProfile selects every column of the user's profile. Exactly one row must match.
// Columns come back as JSON-shaped values so the profile mapper sees what the REST API would return.
func (r *ProfileRepo) QueryProfile(ctx context.Context, userID string) (domainauth.RawProfileRecord, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperrors.NotFound("profile not found")
	}

	var out domainauth.RawProfileRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT * FROM profiles WHERE id = $1`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		n := 0
		for rows.Next() {
			n++
			if n > 1 {
				return errors.New("more than one profile row")
			}
			values, err := rows.Values()
			if err != nil {
				return fmt.Errorf("read profile values: %w", err)
			}
			out = recordFromRow(rows.FieldDescriptions(), values)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if n == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("query profile: %w", err))
	}
	return out, nil
}

func recordFromRow(fields []pgconn.FieldDescription, values []any) domainauth.RawProfileRecord {
	rec := make(domainauth.RawProfileRecord, len(fields))
	for i, fd := range fields {
		rec[fd.Name] = jsonValue(fd.DataTypeOID, values[i])
	}
	return rec
}

// jsonValue converts a decoded column to the shape it would have in a JSON response.
func jsonValue(oid uint32, v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case [16]byte:
		return uuid.UUID(t).String()
	case time.Time:
		if oid == pgtype.DateOID {
			return t.Format("2006-01-02")
		}
		return t.UTC().Format(time.RFC3339Nano)
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonValue(0, e)
		}
		return out
	default:
		return v
	}
}
