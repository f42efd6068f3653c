package mdstore

import (
	"path/filepath"

	"src.mdtree.dev/pkg/testutil"
)

// TempStore returns a Store in a temporary directory. The Store is closed and
// the directory removed during cleanup.
func TempStore(c testutil.Cleanuper) *Store {
	st, err := NewStore(filepath.Join(testutil.TempDir(c), "cache.db"))
	testutil.Must(err)
	c.Cleanup(func() { st.Close() })
	return st
}
