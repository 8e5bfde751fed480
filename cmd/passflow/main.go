package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	passflowcmd "github.com/passflow/passflow/internal/cmd/passflow"
)

func main() {
	cfg, err := passflowcmd.ParseConfig(flag.CommandLine, os.Args[1:], func(key string) (string, bool) {
		value, ok := os.LookupEnv(key)
		return value, ok
	})
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[PASSFLOW] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := passflowcmd.Run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("sign-in failed: %v", err)
	}
}
