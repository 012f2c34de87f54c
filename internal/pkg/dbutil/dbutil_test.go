package dbutil

import (
	"testing"

	"github.com/didi/gendry/builder"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebinds(t *testing.T) {
	query, args := Finalize("DELETE FROM t WHERE (ctime<?)", []interface{}{int64(10)})
	require.Equal(t, "DELETE FROM t WHERE (ctime<$1)", query)
	require.Equal(t, []interface{}{int64(10)}, args)
}

func TestFinalizeRewritesLimit(t *testing.T) {
	query, args := Finalize("SELECT a FROM t WHERE (b=?) LIMIT ?,?", []interface{}{"x", 20, 10})
	require.Equal(t, "SELECT a FROM t WHERE (b=$1) LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"x", 10, 20}, args)
}

func TestFinalizeGendrySelect(t *testing.T) {
	where := map[string]interface{}{"model_name": "m", "query_hash": "h"}
	raw, rawArgs, err := builder.BuildSelect("query_embedding_cache", where, []string{"embedding"})
	require.NoError(t, err)
	query, args := Finalize(raw, rawArgs)
	require.NotContains(t, query, "?")
	require.Contains(t, query, "$1")
	require.Contains(t, query, "$2")
	require.Len(t, args, 2)
}

func TestBuildSelectWithLimit(t *testing.T) {
	query, args, err := BuildSelect("query_embedding_cache", map[string]interface{}{
		"model_name": "m",
		"_limit":     []uint{0, 1},
	}, []string{"embedding"})
	require.NoError(t, err)
	require.Contains(t, query, "LIMIT $2 OFFSET $3")
	require.Len(t, args, 3)
	require.Equal(t, "m", args[0])
	require.EqualValues(t, 1, args[1])
	require.EqualValues(t, 0, args[2])
}

func TestBuildDelete(t *testing.T) {
	query, args, err := BuildDelete("query_embedding_cache", map[string]interface{}{"ctime <": int64(42)})
	require.NoError(t, err)
	require.Contains(t, query, "DELETE FROM query_embedding_cache")
	require.Contains(t, query, "$1")
	require.Equal(t, []interface{}{int64(42)}, args)
}
