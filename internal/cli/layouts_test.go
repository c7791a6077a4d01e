package cli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/structview/pkg/layout/builtin"
	"github.com/matzehuels/structview/pkg/model"
)

func TestLayoutRows(t *testing.T) {
	rows := layoutRows(builtin.Registry())

	names := make([]string, len(rows))
	for i, r := range rows {
		require.Len(t, r, 5)
		names[i] = r[0]
	}
	require.Subset(t, names, []string{"linklist", "bintree", "hashtable", "pctree"})

	for _, r := range rows {
		if r[0] == "linklist" {
			require.Contains(t, r[2], "next")
		}
	}
}

func TestJoinKeys(t *testing.T) {
	require.Equal(t, "—", joinKeys(map[string]int{}))
	require.Equal(t, "a, b, c", joinKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
	require.Equal(t, "xInterval", joinKeys(model.Params{"xInterval": 50.0}))
}
