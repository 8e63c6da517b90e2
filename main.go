// Package main provides the entry point for cachesim.
// cachesim is a trace-driven set-associative cache simulator.
//
// For the full CLI, use: go run ./cmd/cachesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("cachesim - set-associative cache simulator")
	fmt.Println("")
	fmt.Println("Usage: cachesim <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run <trace>            Replay a trace and report cache statistics")
	fmt.Println("  sweep <trace>          Replay a trace on many cache configurations")
	fmt.Println("  gen <workload> <out>   Write a synthetic trace file")
	fmt.Println("  config                 Print or save the resolved configuration")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cachesim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cachesim' instead.")
	}
}
