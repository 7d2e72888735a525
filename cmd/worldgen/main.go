// Package main starts the worldgen session service and handles termination.
//
// The process hosts the guided world-building flow: a WebSocket transport
// around session state, narrator streaming, and world finalization.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	worldgencmd "github.com/emberfall/worldforge/internal/cmd/worldgen"
)

func main() {
	cfg, err := worldgencmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[WORLDGEN] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := worldgencmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
