package persistence

import (
	"errors"

	"github.com/vaultledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps driver errors to domain errors.
// The database is opened with TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey on every dialect.
func translateError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound.WithDetail("%s not found", what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists.WithDetail("%s already exists", what)
	}
	return err
}

// isPostgres reports whether row locks can be requested with FOR UPDATE.
// SQLite serialises writers at the database level instead.
func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}
