// Package respath resolves the on-disk storage layout for a project's
// symbolgraph index and computes stable content hashes.
package respath

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// storageDirName is the directory, rooted at a project, that holds all
// symbolgraph index state.
const storageDirName = ".symbolgraph"

// Paths holds the resolved storage locations for a single project.
type Paths struct {
	// Root is the project-local storage directory (<project_root>/.symbolgraph).
	Root string
	// DBPath is the SQLite metadata store path.
	DBPath string
	// VectorDir is the directory backing the HNSW vector store.
	VectorDir string
	// BleveDir is the directory backing the Bleve lexical index.
	BleveDir string
}

// Resolve computes the storage paths for projectRoot, creating any missing
// directories. It is pure given its input other than that side effect.
func Resolve(projectRoot string) (Paths, error) {
	root := filepath.Join(projectRoot, storageDirName)
	paths := Paths{
		Root:      root,
		DBPath:    filepath.Join(root, "index.db"),
		VectorDir: filepath.Join(root, "vectors"),
		BleveDir:  filepath.Join(root, "bleve"),
	}

	for _, dir := range []string{paths.Root, paths.VectorDir, paths.BleveDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}

	return paths, nil
}

// HashBytes computes the SHA-256 hex digest of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
