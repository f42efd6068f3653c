package testutil

import "os"

// TempDir creates a temporary directory that is removed during cleanup, and
// returns its path.
func TempDir(c Cleanuper) string {
	dir, err := os.MkdirTemp("", "mdtreetest")
	Must(err)
	c.Cleanup(func() {
		if err := os.RemoveAll(dir); err != nil {
			println("failed to remove temp dir", dir)
		}
	})
	return dir
}

// InTempDir is like TempDir, but also changes into the directory, and changes
// back during cleanup.
func InTempDir(c Cleanuper) string {
	dir := TempDir(c)
	Chdir(c, dir)
	return dir
}

// Chdir changes into a directory, and restores the old working directory
// during cleanup.
func Chdir(c Cleanuper, dir string) {
	old, err := os.Getwd()
	Must(err)
	Must(os.Chdir(dir))
	c.Cleanup(func() { Must(os.Chdir(old)) })
}
