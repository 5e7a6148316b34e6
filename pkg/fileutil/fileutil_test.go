package fileutil_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rohmanhakim/clipmd/pkg/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
	}{
		{"single component", []string{"resources"}},
		{"nested components", []string{"parent", "child", "grandchild"}},
		{"base only", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()

			err := fileutil.EnsureDir(base, tt.parts...)
			require.Nil(t, err)

			info, statErr := os.Stat(filepath.Join(append([]string{base}, tt.parts...)...))
			require.NoError(t, statErr)
			assert.True(t, info.IsDir())

			// second call on an existing directory is a no-op
			assert.Nil(t, fileutil.EnsureDir(base, tt.parts...))
		})
	}
}

func TestEnsureDir_PermissionError(t *testing.T) {
	if filepath.Separator == '\\' {
		t.Skip("Skipping permission test on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	tmpDir := t.TempDir()
	readonlyDir := filepath.Join(tmpDir, "readonly")
	err := os.MkdirAll(readonlyDir, 0555)
	require.NoError(t, err)

	targetDir := filepath.Join(readonlyDir, "subdir")
	err = fileutil.EnsureDir(targetDir)
	assert.Error(t, err)

	var fileErr *fileutil.FileError
	if assert.ErrorAs(t, err, &fileErr) {
		assert.False(t, fileErr.Retryable)
		assert.Equal(t, fileutil.ErrCausePathError, fileErr.Cause)
	}
}

func TestSafeJoin(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain file", input: "abc.png"},
		{name: "nested file", input: "tmp/abc.png"},
		{name: "parent escape", input: "../abc.png", wantErr: true},
		{name: "deep escape", input: "tmp/../../abc.png", wantErr: true},
		{name: "base itself", input: ".", wantErr: true},
		{name: "empty name", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fileutil.SafeJoin(base, tt.input)
			if tt.wantErr {
				var fileErr *fileutil.FileError
				require.ErrorAs(t, err, &fileErr)
				assert.Equal(t, fileutil.ErrCausePathTraversal, fileErr.Cause)
				return
			}
			require.Nil(t, err)
			assert.True(t, strings.HasPrefix(got, base))
		})
	}
}
