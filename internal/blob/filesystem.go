package blob

import (
	"splitcore/internal/infra/blob/fs"
)

// NewFilesystem constructs a filesystem-backed blob.Store rooted at the provided path.
// Returns blob.Store so call sites depend on the interface instead of concrete types.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}
