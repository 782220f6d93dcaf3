package loadorder

import (
	"os"
	"path/filepath"

	"github.com/mod-troubleshooter/loadorder/internal/loadordererr"
	"github.com/mod-troubleshooter/loadorder/internal/winenc"
)

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return loadordererr.IOError(dir, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readFileBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, loadordererr.IOError(path, err)
	}
	return data, nil
}

// readExistingFile reads path decoded as Windows-1252, returning an empty
// string if the file does not exist.
func readExistingFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", loadordererr.IOError(path, err)
	}
	decoded, err := winenc.Decode(raw)
	if err != nil {
		return "", loadordererr.DecodeError(path, err)
	}
	return decoded, nil
}
