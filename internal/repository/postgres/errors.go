package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories translate.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Constraint names from migrations/003_create_reviews.up.sql.
const (
	reviewsUserFK = "reviews_user_id_fkey"
	reviewsBookFK = "reviews_book_id_fkey"
)

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func isUniqueViolation(err error) bool { return hasCode(err, uniqueViolation) }

func isForeignKeyViolation(err error) bool { return hasCode(err, foreignKeyViolation) }
