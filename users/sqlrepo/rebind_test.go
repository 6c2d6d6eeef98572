package sqlrepo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRebindDollar(t *testing.T) {
	require.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", rebindDollar("SELECT 1 WHERE a = ? AND b = ?"))
	require.Equal(t, "SELECT 1", rebindDollar("SELECT 1"))

	pg := New(nil, DriverPostgres)
	require.Equal(t, "x = $1", pg.rebind("x = ?"))

	lite := New(nil, DriverSQLite)
	require.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestSequenceSyncStatement(t *testing.T) {
	require.Equal(t, postgresSyncSequence, New(nil, DriverPostgres).sequenceSyncStatement())
	require.Contains(t, postgresSyncSequence, "pg_get_serial_sequence('identities', 'id')")
	require.Empty(t, New(nil, DriverSQLite).sequenceSyncStatement())
}
