package media

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// WriteConcatList writes a concat demuxer list for paths into dir under a
// unique name and returns its path. The caller removes it.
func WriteConcatList(dir string, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("nothing to concatenate")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	listPath := filepath.Join(dir, "concat-"+uuid.NewString()+".txt")
	if err := os.WriteFile(listPath, []byte(ConcatList(paths)), 0644); err != nil {
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}
	return listPath, nil
}
