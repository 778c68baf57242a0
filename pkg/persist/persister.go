package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sumatoshi-tech/strata/pkg/history"
)

const (
	tmpExtension = ".tmp"
	dirPerm      = 0o750
)

// Save writes the log to path, picking the codec from the extension.
// Missing parent directories are created. The write is atomic: data
// lands in a temporary file that replaces path only after a successful
// sync, so a crash never leaves a truncated log behind.
func Save(path string, log history.Log) error {
	codec, err := ForPath(path)
	if err != nil {
		return err
	}

	return SaveWith(path, codec, log)
}

// SaveWith is Save with an explicit codec.
func SaveWith(path string, codec Codec, log history.Log) error {
	mkErr := os.MkdirAll(filepath.Dir(path), dirPerm)
	if mkErr != nil {
		return fmt.Errorf("create log dir: %w", mkErr)
	}

	tmpPath := path + tmpExtension

	fd, createErr := os.Create(tmpPath)
	if createErr != nil {
		return fmt.Errorf("create log file: %w", createErr)
	}

	encodeErr := codec.Encode(fd, log)
	if encodeErr != nil {
		fd.Close()

		return fmt.Errorf("encode log: %w", encodeErr)
	}

	syncErr := fd.Sync()
	if syncErr != nil {
		fd.Close()

		return fmt.Errorf("sync log file: %w", syncErr)
	}

	closeErr := fd.Close()
	if closeErr != nil {
		return fmt.Errorf("close log file: %w", closeErr)
	}

	renameErr := os.Rename(tmpPath, path)
	if renameErr != nil {
		return fmt.Errorf("rename log file: %w", renameErr)
	}

	return nil
}

// Persister saves and loads logs inside a fixed directory. The zero
// value uses the current working directory.
type Persister struct {
	// Dir is the directory log files are resolved against.
	Dir string
}

// Save writes the log to name inside the persister directory.
func (p Persister) Save(name string, log history.Log) error {
	return Save(filepath.Join(p.Dir, name), log)
}

// Load reads the log stored at name inside the persister directory.
func (p Persister) Load(name string) (history.Log, error) {
	return Load(filepath.Join(p.Dir, name))
}

// Load reads the log at path, picking the codec from the extension.
func Load(path string) (history.Log, error) {
	codec, err := ForPath(path)
	if err != nil {
		return nil, err
	}

	return LoadWith(path, codec)
}

// LoadWith is Load with an explicit codec.
func LoadWith(path string, codec Codec) (history.Log, error) {
	fd, openErr := os.Open(path)
	if openErr != nil {
		return nil, fmt.Errorf("open log file: %w", openErr)
	}
	defer fd.Close()

	log, decodeErr := codec.Decode(fd)
	if decodeErr != nil {
		return nil, fmt.Errorf("decode log: %w", decodeErr)
	}

	return log, nil
}
