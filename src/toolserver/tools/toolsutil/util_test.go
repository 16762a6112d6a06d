package toolsutil

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceResolve(t *testing.T) {
	ws, err := NewWorkspace(afero.NewMemMapFs(), "/work")
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "relative", path: "notes/a.txt", want: "/work/notes/a.txt"},
		{name: "absolute inside", path: "/work/b.txt", want: "/work/b.txt"},
		{name: "root itself", path: ".", want: "/work"},
		{name: "dot segments inside", path: "notes/../c.txt", want: "/work/c.txt"},
		{name: "traversal", path: "../etc/passwd", wantErr: true},
		{name: "absolute outside", path: "/etc/passwd", wantErr: true},
		{name: "sibling prefix", path: "/workspace/x", wantErr: true},
		{name: "null byte", path: "a\x00b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ws.Resolve(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutsideWorkspace)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewWorkspaceRequiresAbsoluteRoot(t *testing.T) {
	_, err := NewWorkspace(afero.NewMemMapFs(), "relative")
	assert.Error(t, err)
}

func TestIsTextFile(t *testing.T) {
	assert.True(t, IsTextFile(nil))
	assert.True(t, IsTextFile([]byte("hello world\n")))
	assert.True(t, IsTextFile([]byte(`{"a": 1}`)))
	assert.False(t, IsTextFile([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "2.0 MB", FormatBytes(2*1024*1024))
}

func TestValidateFileSize(t *testing.T) {
	assert.NoError(t, ValidateFileSize(10))
	assert.ErrorIs(t, ValidateFileSize(maxFileSize+1), ErrFileTooLarge)
}
