// Package main is the entry point for the gridscout CLI tool, which turns
// GRID esports telemetry into per-player performance analysis and scouting reports.
package main

import "github.com/pable/gridscout/cmd"

func main() {
	cmd.Execute()
}
