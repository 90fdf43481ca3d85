package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// isUniqueViolation は一意制約違反かどうかを判定します。
// 本番 (postgres) では SQLSTATE 23505、テスト (sqlite + TranslateError) では
// gorm.ErrDuplicatedKey として現れます。
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
