package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataset(t *testing.T) {
	ds, err := ParseDataset(strings.NewReader("\ufeffTime, City,Age\n1,Seattle,28\n2, Boston ,34\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Time", "City", "Age"}, ds.Header)
	assert.Len(t, ds.Rows, 2)

	assert.True(t, ds.Drop("Time"))
	assert.False(t, ds.Drop("Time"))
	assert.Equal(t, []string{"City", "Age"}, ds.Header)
	assert.Equal(t, []string{"Seattle", "28"}, ds.Rows[0])

	rows, err := ds.Project([]string{"Age", "City"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"28", "Seattle"}, {"34", "Boston"}}, rows)

	_, err = ds.Project([]string{"City", "Race", "Gender"})
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "Race, Gender")
}

func TestParseDataset_Malformed(t *testing.T) {
	_, err := ParseDataset(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ParseDataset(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)
}

func TestReadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("City\nReno\n"), 0o644))

	ds, err := ReadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Index("City"))
	assert.Equal(t, -1, ds.Index("Age"))

	_, err = ReadDataset(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
