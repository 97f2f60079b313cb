package dbtypes

import (
	"database/sql/driver"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringArray stores a text[] column on Postgres and a text literal on SQLite.
type StringArray []string

func (a *StringArray) Scan(src any) error {
	if src == nil {
		*a = StringArray{}
		return nil
	}

	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return fmt.Errorf("StringArray: %w", err)
	}
	if arr == nil {
		arr = pq.StringArray{}
	}
	*a = StringArray(arr)
	return nil
}

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	return pq.StringArray(a).Value()
}

// GormDBDataType picks the column type for the active dialect.
func (StringArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// First returns the first element or an empty string.
func (a StringArray) First() string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}
