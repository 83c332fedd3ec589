package repository

import (
	"database/sql"
	"time"

	"github.com/garyjia/tour-confirmation/internal/domain/entity"
)

// nullDate stores a calendar date as YYYY-MM-DD text
func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(entity.DateLayout), Valid: true}
}

// scanDate reverses nullDate
func scanDate(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	return entity.ParseDate(s.String)
}
