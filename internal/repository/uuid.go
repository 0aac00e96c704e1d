package repository

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/port-russell/service-marina/internal/platform/database"
)

// UUID is a uuid.UUID column stored natively on Postgres and as char(36) on
// MySQL and SQLite, which have no uuid type.
type UUID uuid.UUID

// GormDBDataType picks the column type for the connected dialect.
func (UUID) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == database.DriverPostgres {
		return "uuid"
	}
	return "char(36)"
}

// Value stores the canonical 36-character form.
func (u UUID) Value() (driver.Value, error) {
	return uuid.UUID(u).String(), nil
}

// Scan accepts the text and 16-byte forms.
func (u *UUID) Scan(src interface{}) error {
	var id uuid.UUID
	if err := id.Scan(src); err != nil {
		return err
	}
	*u = UUID(id)
	return nil
}

func (u UUID) String() string {
	return uuid.UUID(u).String()
}
