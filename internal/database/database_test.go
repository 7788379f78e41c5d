package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "cms.db?_txlock=immediate&_busy_timeout=5000", SQLiteDSN("cms.db"))
	assert.Equal(t, "cms.db?_foreign_keys=1&_txlock=immediate&_busy_timeout=5000", SQLiteDSN("cms.db?_foreign_keys=1"))
	assert.Equal(t, "cms.db?_txlock=exclusive&_busy_timeout=100", SQLiteDSN("cms.db?_txlock=exclusive&_busy_timeout=100"))
}
