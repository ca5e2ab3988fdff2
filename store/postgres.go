package store

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OpenPostgres opens a gorm handle for the persistent client store.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}
