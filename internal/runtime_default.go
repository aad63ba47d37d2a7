//go:build !wasm

package internal

import "github.com/petermattis/goid"

const goroutineChecks = true

func currentGID() int64 {
	return goid.Get()
}
