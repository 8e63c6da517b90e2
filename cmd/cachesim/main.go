// Package main provides the cachesim command-line tool. cachesim replays
// binary memory-access traces through a set-associative cache model and
// reports hits, misses and writebacks.
package main

import (
	"os"

	"github.com/tebeka/atexit"
)

func main() {
	// atexit.Exit runs the registered handlers, which flush recordings.
	atexit.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
