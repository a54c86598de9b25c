package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// "Key (user_id, promo_id)=(...) already exists."
	reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)
	// "Key (user_id)=(...) is not present in table "profiles"."
	reNotPresent = regexp.MustCompile(`is not present in table "?([^"]+)"?`)
	// "... is still referenced from table "promo_claims"."
	reReferencedFrom = regexp.MustCompile(`is still referenced from table "?([^"]+)"?`)
)

// tableNames holds the user-facing name of each application table.
var tableNames = map[string]string{
	"profiles":     "Profil",
	"promo_claims": "Klaim promo",
}

// MapDBError converts driver errors into AppErrors:
// no rows become NotFound, unique violations Conflict, foreign keys ForeignKey,
// check and not-null violations Validation, and context errors Timeout or Canceled.
// Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "Permintaan melebihi batas waktu. Silakan coba lagi.")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "Permintaan dibatalkan.")
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, sql.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "Data tidak ditemukan")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		appErr := Wrap(pgErr, ErrCodeConflict, "Data ini sudah ada.")
		appErr.Field = uniqueField(pgErr)
		return appErr
	case pgerrcode.ForeignKeyViolation:
		return Wrap(pgErr, ErrCodeForeignKey, foreignKeyMessage(pgErr))
	case pgerrcode.CheckViolation:
		return fieldValidation(pgErr, "Nilai tidak valid.", "Data tidak valid. Periksa kembali isian Anda.")
	case pgerrcode.NotNullViolation:
		return fieldValidation(pgErr, "Wajib diisi.", "Ada data wajib yang belum diisi.")
	default:
		return Wrap(pgErr, ErrCodeInternal, "Terjadi kesalahan pada database. Silakan coba lagi.")
	}
}

func fieldValidation(pgErr *pgconn.PgError, fieldMsg, genericMsg string) error {
	if pgErr.ColumnName != "" {
		appErr := Wrap(pgErr, ErrCodeValidation, fieldMsg)
		appErr.Field = pgErr.ColumnName
		return appErr
	}
	return Wrap(pgErr, ErrCodeValidation, genericMsg)
}

// uniqueField prefers the column metadata, then the Detail key list, then the constraint name.
func uniqueField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	return inferFieldFromConstraint(pgErr.TableName, pgErr.ConstraintName)
}

func foreignKeyMessage(pgErr *pgconn.PgError) string {
	if m := reNotPresent.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return tableDisplayName(m[1]) + " yang dirujuk tidak ditemukan."
	}
	if m := reReferencedFrom.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return "Data masih digunakan oleh " + strings.ToLower(tableDisplayName(m[1])) + "."
	}
	if strings.Contains(pgErr.ConstraintName, "user_id") {
		return tableDisplayName("profiles") + " yang dirujuk tidak ditemukan."
	}
	return "Data masih digunakan oleh data lain."
}

// inferFieldFromConstraint strips the table prefix and the index suffix from names like
// "profiles_email_key". Multi-column names are ambiguous and yield "".
func inferFieldFromConstraint(table, constraint string) string {
	name := constraint
	if table != "" {
		name = strings.TrimPrefix(name, table+"_")
	} else if i := strings.Index(name, "_"); i >= 0 {
		name = name[i+1:]
	}
	for _, suffix := range []string{"_key", "_unique", "_idx", "_pkey"} {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok {
			name = trimmed
			break
		}
	}
	if name == "" || name == constraint || (strings.Contains(name, "_") && !knownColumn(name)) {
		return ""
	}
	return name
}

// knownColumn allows underscored single-column names used by the schema.
func knownColumn(name string) bool {
	switch name {
	case "user_id", "promo_id", "partnership_number":
		return true
	}
	return false
}

func tableDisplayName(table string) string {
	table = strings.ToLower(strings.TrimSpace(table))
	if name, ok := tableNames[table]; ok {
		return name
	}
	words := strings.Fields(strings.ReplaceAll(table, "_", " "))
	if len(words) == 0 {
		return "Data"
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}
