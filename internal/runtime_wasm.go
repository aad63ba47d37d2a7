//go:build wasm

package internal

// wasm runs a single thread; there is nothing to check.
const goroutineChecks = false

func currentGID() int64 {
	return 0
}
