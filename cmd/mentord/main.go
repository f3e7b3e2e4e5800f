// Package main starts the mentor daemon and handles termination.
//
// The process is a transport adapter around the turn-based mentoring
// game engine; all game state lives in the engine's sqlite store.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	mentordcmd "github.com/dhleesep9/gayoon/internal/cmd/mentord"
)

func main() {
	cfg, err := mentordcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[MENTORD] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mentordcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
