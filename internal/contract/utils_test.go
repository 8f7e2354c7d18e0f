package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treebench/iqstat/schema"
)

func TestGetColorLabel(t *testing.T) {
	tests := []struct {
		name       string
		topologies int
		trees      int
		label      string
	}{
		{"converged", 1, 4, schema.ConvergedLabel},
		{"stable", 2, 10, schema.StableLabel},
		{"mixed", 4, 10, schema.MixedLabel},
		{"divergent", 9, 10, schema.DivergentLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetColorLabel(tt.topologies, tt.trees)
			// Should contain the plain label
			assert.Contains(t, result, tt.label)
		})
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestGetAnalysisDBFilePath(t *testing.T) {
	path := GetAnalysisDBFilePath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, ".iqstat_history.db")

	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, homeDir), "path %s should start with home dir %s", path, homeDir)
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "short.log", TruncatePath("short.log", 20))
	assert.Equal(t, "...run.log", TruncatePath("/very/long/dir/run.log", 10))
	assert.Equal(t, "abcdef", TruncatePath("abcdef", 3))
}

func TestRunPrefix(t *testing.T) {
	suffixes := []string{".log", ".iqtree", ".rfdist"}
	tests := []struct {
		arg      string
		expected string
	}{
		{"runs/sample", "runs/sample"},
		{"runs/sample.log", "runs/sample"},
		{"runs/sample.iqtree", "runs/sample"},
		{"runs/sample.rfdist", "runs/sample"},
		{".log", ".log"},
		{"sample.treefile", "sample.treefile"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.expected, RunPrefix(tt.arg, suffixes...))
		})
	}
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("sometimes")
	assert.Error(t, err)
}
