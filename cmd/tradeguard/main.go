package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"tradeguard/internal/app"
	"tradeguard/internal/config"
	"tradeguard/internal/logger"
	"tradeguard/internal/types"
)

func main() {
	cfgPath := os.Getenv("TRADEGUARD_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("open log file: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("config loaded (env=%s)", cfg.App.Env)

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("init app: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 {
		err := runCommand(ctx, a, os.Args[1:])
		if cerr := a.Close(); cerr != nil {
			logger.Warnf("closing store: %v", cerr)
		}
		if err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}

// runCommand handles the one-shot subcommands:
//
//	tradeguard import <export.csv>   ingest a broker export immediately
//	tradeguard ask <BUY|SELL> <SYM>  evaluate a single proposal and print it
func runCommand(ctx context.Context, a *app.App, args []string) error {
	switch args[0] {
	case "import":
		if len(args) != 2 {
			return fmt.Errorf("usage: tradeguard import <export.csv>")
		}
		id, err := a.Importer().ImportFile(ctx, args[1])
		if err != nil {
			return fmt.Errorf("import %s: %w", args[1], err)
		}
		fmt.Printf("imported snapshot %d\n", id)
		return nil
	case "ask":
		if len(args) != 3 {
			return fmt.Errorf("usage: tradeguard ask <BUY|SELL> <SYMBOL>")
		}
		proposal := types.TradeProposal{
			Action: types.Action(strings.ToUpper(args[1])),
			Symbol: strings.ToUpper(args[2]),
		}
		decision, err := a.Evaluator().EvaluateProposal(ctx, proposal)
		if err != nil {
			return fmt.Errorf("evaluate %s %s: %w", proposal.Action, proposal.Symbol, err)
		}
		out, err := json.MarshalIndent(decision, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	default:
		return fmt.Errorf("unknown command %q (expected import or ask)", args[0])
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
