package checkpoint

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoad(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		want    int64
		wantErr bool
	}{
		{name: "plain", content: strPtr("1700000000"), want: 1700000000},
		{name: "trailing newline", content: strPtr("1700000000\n"), want: 1700000000},
		{name: "surrounding space", content: strPtr("  42  \r\n"), want: 42},
		{name: "only first line is read", content: strPtr("7\n99\n"), want: 7},
		{name: "zero", content: strPtr("0"), want: 0},
		{name: "missing file", content: nil, wantErr: true},
		{name: "empty file", content: strPtr(""), wantErr: true},
		{name: "not a number", content: strPtr("yesterday"), wantErr: true},
		{name: "float", content: strPtr("1.5"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			path := "/work/last_updated"
			if tt.content != nil {
				require.NoError(t, afero.WriteFile(fs, path, []byte(*tt.content), 0644))
			}

			got, err := NewStoreWithFS(fs, path).Load()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMissingState), "want ErrMissingState, got %v", err)

				var mse *MissingStateError
				require.True(t, errors.As(err, &mse))
				assert.Equal(t, path, mse.Path)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStoreNeverWrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/work/last_updated"
	require.NoError(t, afero.WriteFile(fs, path, []byte("5\n"), 0644))

	store := NewStoreWithFS(fs, path)
	assert.Equal(t, path, store.Path())
	for i := 0; i < 2; i++ {
		_, err := store.Load()
		require.NoError(t, err)
	}

	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "5\n", string(content))
}

func strPtr(s string) *string { return &s }
