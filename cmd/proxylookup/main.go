package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("service failed", "error", err)
		os.Exit(1)
	}
}
