//go:build windows

package main

import (
	"log/slog"
	"os"

	"github.com/Alia5/wiituio/internal/util"
)

func init() {
	if !util.LaunchedFromDesktop() {
		return
	}
	if len(os.Args) >= 2 && os.Args[1] == "run" {
		return
	}
	slog.Info("Started from the desktop, defaulting to 'run'")
	slog.Warn("Use a terminal for the other commands")
	args := make([]string, 0, len(os.Args)+1)
	args = append(args, os.Args[0], "run")
	args = append(args, os.Args[1:]...)
	os.Args = args
}
