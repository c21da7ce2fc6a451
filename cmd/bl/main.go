// Package main is the entry point for the bl CLI (alias for buildlint).
package main

import (
	"github.com/justrnr500/buildlint/internal/cmd"
)

func main() {
	cmd.Execute()
}
