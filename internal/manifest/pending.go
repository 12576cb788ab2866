package manifest

import (
	"bufio"
	"errors"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/tacogips/addonsync/internal/checkpoint"
	"github.com/tacogips/addonsync/internal/model"
)

// ReadPending reads the pending list, one id per line. Blank lines are skipped
// and surrounding whitespace is trimmed. A missing file is a
// *checkpoint.MissingStateError.
func ReadPending(fs afero.Fs, path string) ([]model.ItemID, error) {
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, checkpoint.NewMissingStateError(path, "pending list not found", err)
		}
		return nil, newManifestError(ManifestReadFailed, "failed to open pending list", path, err)
	}
	defer func() { _ = f.Close() }()

	ids := []model.ItemID{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ids = append(ids, model.ItemID(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, newManifestError(ManifestReadFailed, "failed to read pending list", path, err)
	}
	return ids, nil
}

// AppendPending appends one id to the pending list.
func AppendPending(w Writer, path string, id model.ItemID) error {
	return w.Append(path, []byte(id.String()+"\n"))
}
