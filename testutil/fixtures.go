package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// CreateFixture inserts model as-is, keeping explicit timestamps.
func CreateFixture(t *testing.T, db *gorm.DB, model interface{}) {
	t.Helper()
	require.NoError(t, db.Create(model).Error, "failed to create fixture")
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error, "failed to count %s", table)
	return n
}
