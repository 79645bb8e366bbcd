package stmtcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupMissThenPut(t *testing.T) {
	c := New(2, 2)
	key := Key{SQL: "select 1"}

	_, res := c.Lookup(key)
	require.Equal(t, Miss, res)

	d := c.Put(key)
	require.Equal(t, key, d.Key)
	require.Equal(t, 0, d.Index)
	require.Equal(t, "", d.ServerName)
}

func TestPromotionAtThreshold(t *testing.T) {
	c := New(2, 1)
	key := Key{SQL: "select 1"}

	d := c.Put(key)
	_, res := c.Lookup(key)
	require.Equal(t, HitPromote, res)

	c.Promote(d)
	require.Equal(t, "_pagio_001", d.ServerName)
	c.CommitSuccess(d, true)
	require.True(t, d.Prepared)

	_, res = c.Lookup(key)
	require.Equal(t, HitPrepared, res)
}

func TestLRUEvictionSchedulesClose(t *testing.T) {
	c := New(2, 1)

	a := Key{SQL: "A"}
	b := Key{SQL: "B"}
	cKey := Key{SQL: "C"}

	da := c.Put(a)
	c.Promote(da)
	c.CommitSuccess(da, true)

	db := c.Put(b)
	c.Promote(db)
	c.CommitSuccess(db, true)

	// touch A so B becomes the least-recently-used entry
	c.Lookup(a)

	require.Nil(t, c.PendingClose())
	c.Put(cKey)
	require.NotNil(t, c.PendingClose())
	require.Equal(t, b, c.PendingClose().Key)

	closed := c.TakePendingClose()
	require.Equal(t, "_pagio_002", closed.ServerName)
	require.Nil(t, c.PendingClose())
}

func TestCommitFailureOnPreparedSchedulesClose(t *testing.T) {
	c := New(2, 1)
	key := Key{SQL: "select 1"}

	d := c.Put(key)
	c.Promote(d)
	c.CommitSuccess(d, true)

	c.CommitFailure(key, d)
	require.True(t, d.MarkedForClose)
	require.Equal(t, d, c.PendingClose())

	_, res := c.Lookup(key)
	require.Equal(t, Miss, res)
}

func TestCommitFailureOnFailedPromotionFreesIndex(t *testing.T) {
	c := New(2, 1)
	key := Key{SQL: "select 1"}

	d := c.Put(key)
	_, res := c.Lookup(key)
	require.Equal(t, HitPromote, res)

	c.Promote(d)
	require.Equal(t, "_pagio_001", d.ServerName)

	// the named Parse this turn failed before ParseComplete: d.Prepared
	// is still false, but it already holds the index Promote assigned.
	c.CommitFailure(key, d)
	require.False(t, d.Prepared)
	require.Equal(t, 0, d.Index)
	require.Equal(t, "", d.ServerName)
	require.Nil(t, c.PendingClose())

	_, res = c.Lookup(key)
	require.Equal(t, Miss, res)

	// the freed index is reused rather than growing nextIndex further.
	d2 := c.Put(key)
	c.Promote(d2)
	require.Equal(t, "_pagio_001", d2.ServerName)
}

func TestInvalidateNameRemovesSingleEntry(t *testing.T) {
	c := New(4, 1)
	key := Key{SQL: "select 1"}

	d := c.Put(key)
	c.Promote(d)
	c.CommitSuccess(d, true)

	c.InvalidateName("_pagio_001")
	_, res := c.Lookup(key)
	require.Equal(t, Miss, res)
}

func TestInvalidateAllWipesCacheAndCancelsPendingClose(t *testing.T) {
	c := New(1, 1)

	a := Key{SQL: "A"}
	b := Key{SQL: "B"}

	da := c.Put(a)
	c.Promote(da)
	c.CommitSuccess(da, true)

	c.Put(b) // evicts A, schedules its close
	require.NotNil(t, c.PendingClose())

	c.InvalidateAll()
	require.Nil(t, c.PendingClose())
	require.Equal(t, 0, c.Len())
}

func TestZeroCapacityDisablesCaching(t *testing.T) {
	c := New(0, 1)
	key := Key{SQL: "select 1"}

	_, res := c.Lookup(key)
	require.Equal(t, Miss, res)

	d := c.Put(key)
	require.Equal(t, 0, c.Len())
	require.NotNil(t, d)
}
