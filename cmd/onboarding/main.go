// Package main starts the onboarding workflow service process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	onboardingcmd "github.com/louisbranch/vendorflow/internal/cmd/onboarding"
	"github.com/louisbranch/vendorflow/internal/platform/config"
)

func main() {
	cfg, err := onboardingcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[ONBOARDING] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := onboardingcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
