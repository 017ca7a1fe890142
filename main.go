package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/insightdelivered/statement-import/internal/api"
	"github.com/insightdelivered/statement-import/internal/config"
	"github.com/insightdelivered/statement-import/internal/database"
	"github.com/insightdelivered/statement-import/internal/importer"
	"github.com/insightdelivered/statement-import/internal/ledger"
	"github.com/insightdelivered/statement-import/internal/models"
	"github.com/insightdelivered/statement-import/internal/reconcile"
	"github.com/insightdelivered/statement-import/internal/utils"
	"github.com/insightdelivered/statement-import/internal/writer"
)

const version = "1.0.0"

func main() {
	serveFlag := flag.Bool("serve", false, "Run the HTTP import service")
	providerFlag := flag.String("provider", "", "Statement provider: montepio, traderepublic, revolut (detected from content when omitted)")
	accountFlag := flag.Int64("account", 0, "Ledger account ID to import into")
	dryRunFlag := flag.Bool("dry-run", false, "Parse and preview without touching the ledger database")
	outputFlag := flag.String("output", "", "Write a CSV preview of the parsed transactions to this path")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Statement Import & Reconciliation Engine

Imports bank statement PDFs and CSV/XLSX exports into the ledger,
skipping rows that were already imported and reporting near-duplicates
for review.

Usage:
  statement-import [flags] <statement.pdf|export.csv|export.xlsx>
  statement-import -serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Preview an export without writing to the ledger (provider auto-detected)
  statement-import -account=1 -dry-run export.csv

  # Import a Montepio statement into account 3
  statement-import -provider=montepio -account=3 statement.pdf

  # Run the HTTP service
  statement-import -serve
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-import v%s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("Failed to load configuration: %v\n", err)
	}

	if *serveFlag {
		serve(cfg)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	provider := models.Provider(*providerFlag)
	switch provider {
	case "", models.ProviderMontepio, models.ProviderTradeRepublic, models.ProviderRevolut:
	default:
		fatalf("Unknown provider %q. Supported: montepio, traderepublic, revolut (omit to auto-detect)\n", *providerFlag)
	}
	if *accountFlag <= 0 {
		fatalf("Specify the target account with -account\n")
	}

	var store ledger.Ledger
	if *dryRunFlag {
		store = ledger.NewMemoryStore()
	} else {
		db, err := database.NewMySQL(cfg)
		if err != nil {
			fatalf("Failed to connect to ledger database: %v\n", err)
		}
		defer db.Close()
		store = ledger.NewMySQLStore(db)
	}

	for _, inputPath := range flag.Args() {
		if err := processFile(store, cfg, inputPath, provider, *accountFlag, *outputFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func processFile(store ledger.Ledger, cfg *config.Config, inputPath string, provider models.Provider, accountID int64, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	imp := importer.New(store, utils.GetLogger()).WithTolerance(cfg.ReconcileTolerance)
	result, err := imp.Import(context.Background(), importer.Request{
		AccountID: accountID,
		Provider:  provider,
		Filename:  inputPath,
		Data:      data,
		OnStatus: func(msg string) {
			fmt.Printf("  %s...\n", msg)
		},
	})
	if err != nil {
		return err
	}

	for _, stream := range result.Streams {
		label := stream.Product
		if label == "" {
			label = "statement"
		}
		fmt.Printf("  %s: imported %d, skipped %d already present\n", label, stream.Imported, stream.Skipped)
		if stream.FinalBalance != nil {
			fmt.Printf("  %s: closing balance %.2f\n", label, *stream.FinalBalance)
		}
		for _, pair := range stream.Duplicates {
			fmt.Printf("  possible duplicate on %s: %q (%.2f) vs existing %q (%.2f)\n",
				pair.Incoming.Date, pair.Incoming.Description, pair.Incoming.Amount,
				pair.Existing.Description, pair.Existing.Amount)
		}
	}
	if result.Dropped > 0 {
		fmt.Printf("  %d row(s) were skipped as unparseable\n", result.Dropped)
	}

	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create preview file: %w", err)
		}
		defer f.Close()
		w := &writer.CSVWriter{IncludeSummary: true}
		if err := w.Write(f, result); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
		fmt.Printf("  Preview: %s\n", outputPath)
	}

	fmt.Println("  Done.")
	return nil
}

func serve(cfg *config.Config) {
	log := utils.GetLogger()

	db, err := database.NewMySQL(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to ledger database")
	}
	defer db.Close()
	store := ledger.NewMySQLStore(db)

	imp := importer.New(store, log).WithTolerance(cfg.ReconcileTolerance)
	resolver := reconcile.NewResolver(store, log)
	sessions := reconcile.NewSessionStore()

	app := fiber.New(fiber.Config{
		AppName:   cfg.AppName,
		BodyLimit: cfg.UploadMaxSize,
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	api.NewHandler(imp, resolver, sessions, log).RegisterRoutes(app)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nGracefully shutting down...")
		_ = app.Shutdown()
	}()

	log.WithField("port", cfg.AppPort).Info("server starting")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
