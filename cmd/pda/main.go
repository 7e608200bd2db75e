// Command pda is the one-shot host runner: it wires the kernel from the
// environment, submits statements, and prints typed JSON outcomes. One
// statement can be passed on the command line; with -jsonl, requests are
// read as JSON lines from stdin and executed concurrently — task IDs are
// disjoint, so the kernel stays correct under arbitrary interleavings.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ssbking/personal-digital-authority/internal/config"
	"github.com/ssbking/personal-digital-authority/internal/kernel"
	"github.com/ssbking/personal-digital-authority/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

// request is one JSONL input line.
type request struct {
	Text        string            `json:"text"`
	Supplements map[string]string `json:"supplements,omitempty"`
	HRCToken    string            `json:"hrc_token,omitempty"`
}

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("PDA_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	supplementsJSON := flag.String("supplements", "", "JSON object of capability-specific inputs")
	hrcToken := flag.String("hrc", "", "signed confirmation JWT from the confirmer device")
	jsonl := flag.Bool("jsonl", false, "read requests as JSON lines from stdin")
	parallelism := flag.Int("parallelism", 4, "concurrent executor instances in -jsonl mode")
	flag.Parse()

	// Load .env if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("pda starting", "version", version)

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	k, err := kernel.New(cfg, kernel.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("kernel: %w", err)
	}
	defer func() { _ = k.Close() }()

	if *jsonl {
		return runJSONL(ctx, k, *parallelism)
	}

	if flag.NArg() != 1 {
		return fmt.Errorf("usage: pda [flags] STATEMENT (or pda -jsonl < requests.jsonl)")
	}

	var supplements map[string]string
	if *supplementsJSON != "" {
		if err := json.Unmarshal([]byte(*supplementsJSON), &supplements); err != nil {
			return fmt.Errorf("parse supplements: %w", err)
		}
	}

	outcome := k.Submit(ctx, kernel.Request{
		Text:        flag.Arg(0),
		Supplements: supplements,
		HRCToken:    *hrcToken,
	})
	return printOutcome(outcome)
}

// runJSONL executes one request per input line. Statements are independent
// tasks; the group bounds how many executor instances run at once.
func runJSONL(ctx context.Context, k *kernel.Kernel, parallelism int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	var printMu sync.Mutex
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		no := lineNo
		g.Go(func() error {
			var req request
			if err := json.Unmarshal([]byte(line), &req); err != nil {
				return fmt.Errorf("line %d: %w", no, err)
			}
			outcome := k.Submit(ctx, kernel.Request{
				Text:        req.Text,
				Supplements: req.Supplements,
				HRCToken:    req.HRCToken,
			})
			printMu.Lock()
			defer printMu.Unlock()
			return printOutcome(outcome)
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return g.Wait()
}

func printOutcome(outcome kernel.Outcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
