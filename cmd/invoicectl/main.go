package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/smbops/invoice-copilot/internal/ai"
	"github.com/smbops/invoice-copilot/internal/auth"
	"github.com/smbops/invoice-copilot/internal/config"
	"github.com/smbops/invoice-copilot/internal/demo"
	"github.com/smbops/invoice-copilot/internal/document"
	"github.com/smbops/invoice-copilot/internal/extract"
	"github.com/smbops/invoice-copilot/internal/intent"
	"github.com/smbops/invoice-copilot/internal/models"
	"github.com/smbops/invoice-copilot/internal/services"
	"github.com/smbops/invoice-copilot/internal/storage"
	"github.com/smbops/invoice-copilot/internal/store"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "invoicectl",
		Usage: "extract and query invoices from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.yaml", Usage: "path to the YAML configuration file"},
			&cli.BoolFlag{Name: "verbose", Usage: "log pipeline events"},
		},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "extract invoice fields from a PDF or text file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mode", Usage: "pattern or synthetic (default from config)"},
					&cli.BoolFlag{Name: "json", Usage: "print the record as JSON"},
				},
				Action: extractCommand,
			},
			{
				Name:      "ask",
				Usage:     "load invoice files and answer a question about them",
				ArgsUsage: "<file>...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "question", Aliases: []string{"q"}, Required: true},
					&cli.StringFlag{Name: "provider", Usage: "ollama, openai or gemini (default from config)"},
				},
				Action: askCommand,
			},
			{
				Name:  "sample",
				Usage: "render a sample invoice PDF",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "sample-invoice.pdf"},
					&cli.StringFlag{Name: "vendor", Value: "Demo Vendor"},
					&cli.StringFlag{Name: "number", Value: "INV-001"},
					&cli.StringFlag{Name: "total", Value: "192.50"},
					&cli.IntFlag{Name: "due", Value: 7, Usage: "days until the due date"},
				},
				Action: sampleCommand,
			},
			{
				Name:      "hash-password",
				Usage:     "print a bcrypt hash for auth.users in the config",
				ArgsUsage: "<password>",
				Action:    hashPasswordCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*models.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if !c.Bool("verbose") {
		cfg.Log.Level = "warn"
	}
	return cfg, config.NewLogger(cfg.Log), nil
}

func extractCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("extract needs exactly one file", 2)
	}
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	if mode := c.String("mode"); mode != "" {
		cfg.Extraction.Mode = mode
	}

	path := c.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	invoices, _ := store.New(models.StoreHistory)
	strategy, err := extract.New(cfg.Extraction, invoices, logger)
	if err != nil {
		return err
	}
	src := extract.Source{FileName: filepath.Base(path), StoragePath: path}
	if strategy.NeedsText() {
		src.Text, err = document.NewExtractor(logger).Extract(c.Context, data, src.FileName, storage.ContentTypeFor(path))
		if err != nil {
			return err
		}
	}
	inv, err := strategy.Extract(c.Context, src)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(inv)
	}
	fmt.Println(services.FormatInvoice(*inv))
	for _, msg := range services.NewValidator().Validate(inv).Messages() {
		fmt.Println("warning:", msg)
	}
	return nil
}

func askCommand(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}

	invoices, err := store.New(cfg.Store.Mode)
	if err != nil {
		return err
	}
	strategy, err := extract.New(cfg.Extraction, invoices, logger)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "invoicectl-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	docs, err := storage.NewLocal(dir)
	if err != nil {
		return err
	}

	uploads := services.NewUploadService(docs, document.NewExtractor(logger), strategy, invoices, nil, logger)
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := uploads.Upload(c.Context, services.UploadInput{
			FileName:    filepath.Base(path),
			ContentType: storage.ContentTypeFor(path),
			Data:        data,
		}); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	var model *ai.Adapter
	if provider, err := ai.NewProvider(cfg.AI, c.String("provider")); err != nil {
		logger.Warn("ai.disabled", "error", err)
	} else {
		model = ai.NewAdapter(provider, cfg.AI.Timeout, logger)
	}

	answer, err := intent.NewRouter(invoices, model, logger).Answer(c.Context, c.String("question"))
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func sampleCommand(c *cli.Context) error {
	total, err := decimal.NewFromString(c.String("total"))
	if err != nil {
		return cli.Exit("invalid --total: "+err.Error(), 2)
	}
	today := time.Now()
	subtotal := total.Div(decimal.NewFromFloat(1.1)).Round(2)

	inv := models.Invoice{
		Vendor:        c.String("vendor"),
		VendorAddress: "1 Sample Street",
		VendorEmail:   "billing@example.com",
		InvoiceNo:     c.String("number"),
		IssueDate:     today.Format(models.DateLayout),
		DueDate:       today.AddDate(0, 0, c.Int("due")).Format(models.DateLayout),
		Currency:      models.DefaultCurrency,
		LineItems: []models.LineItem{
			{Desc: "Services", Qty: 1, UnitPrice: subtotal, Amount: subtotal},
		},
		Subtotal: subtotal,
		Tax:      total.Sub(subtotal),
		Total:    total,
	}

	f, err := os.Create(c.String("out"))
	if err != nil {
		return err
	}
	if err := demo.RenderInvoicePDF(inv, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Println("wrote", c.String("out"))
	return nil
}

func hashPasswordCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("hash-password needs exactly one argument", 2)
	}
	hash, err := auth.HashPassword(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
