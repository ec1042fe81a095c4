package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"onepaisa/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	svc, repo := cli.InitLedger(logger, cfg)
	defer repo.Close()

	cli.Register(&cli.App{Svc: svc, Cfg: cfg, DBPath: cfg.DBPath})

	flag.Parse()
	return int(subcommands.Execute(context.Background()))
}
