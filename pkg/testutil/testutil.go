// Package testutil contains common test utilities.
package testutil

import "os"

// Cleanuper wraps the Cleanup method. It is a subset of [testing.TB], thus
// satisfied by [*testing.T] and [*testing.B].
type Cleanuper interface {
	Cleanup(func())
}

// Set sets *p to v and restores the old value during cleanup.
func Set[T any](c Cleanuper, p *T, v T) {
	old := *p
	*p = v
	c.Cleanup(func() { *p = old })
}

// MustWriteFile writes content to name, creating it with mode 0600, and panics
// if an error occurs.
func MustWriteFile(name, content string) {
	if err := os.WriteFile(name, []byte(content), 0600); err != nil {
		panic(err)
	}
}

// Must panics if err is not nil.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 returns v, or panics if err is not nil.
func Must1[T any](v T, err error) T {
	Must(err)
	return v
}

// Must2 returns v1 and v2, or panics if err is not nil.
func Must2[T1, T2 any](v1 T1, v2 T2, err error) (T1, T2) {
	Must(err)
	return v1, v2
}
