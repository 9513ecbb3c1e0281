package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/insightdelivered/due-invoice-extractor/internal/api"
	"github.com/insightdelivered/due-invoice-extractor/internal/duedate"
	"github.com/insightdelivered/due-invoice-extractor/internal/extractor"
	"github.com/insightdelivered/due-invoice-extractor/internal/models"
	"github.com/insightdelivered/due-invoice-extractor/internal/storage"
	"github.com/insightdelivered/due-invoice-extractor/internal/writer"
)

const version = "1.0.0"

// settings shared by every subcommand.
type settings struct {
	logLevel    *string
	timezone    *string
	overdueDays *int
	aheadDays   *int
	dbPath      *string
	databaseURL *string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	err := root.ParseAndRun(ctx, os.Args[1:],
		ff.WithEnvVarPrefix("DUEX"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	)
	switch {
	case err == nil:
	case errors.Is(err, ff.ErrHelp), errors.Is(err, ff.ErrNoExec):
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root.GetSelected()))
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *ff.Command {
	rootFlags := ff.NewFlagSet("duex")
	s := settings{
		logLevel:    rootFlags.StringLong("log-level", "info", "Log level: debug, info, warn, error"),
		timezone:    rootFlags.StringLong("timezone", "Local", "IANA time zone that defines \"today\""),
		overdueDays: rootFlags.IntLong("overdue-days", -extractor.DefaultWindow.Min, "Keep invoices overdue by at most this many days"),
		aheadDays:   rootFlags.IntLong("ahead-days", extractor.DefaultWindow.Max, "Keep invoices due within this many days"),
		dbPath:      rootFlags.StringLong("db", "uploads.db", "Upload log database file path"),
		databaseURL: rootFlags.StringLong("database-url", "", "Postgres URL for the upload log (overrides --db)"),
	}
	_ = rootFlags.StringLong("config", "", "Config file (flag=value per line)")
	showVersion := rootFlags.BoolLong("version", "Show version information")

	root := &ff.Command{
		Name:      "duex",
		Usage:     "duex [FLAGS] <SUBCOMMAND>",
		ShortHelp: "extract invoices due soon from CSV and Excel sheets",
		Flags:     rootFlags,
		Exec: func(ctx context.Context, args []string) error {
			if *showVersion {
				fmt.Println(version)
				return nil
			}
			return ff.ErrNoExec
		},
	}
	root.Subcommands = []*ff.Command{
		newServeCommand(rootFlags, s),
		newExtractCommand(rootFlags, s),
		newUploadsCommand(rootFlags, s),
	}
	return root
}

func newServeCommand(parent *ff.FlagSet, s settings) *ff.Command {
	fs := ff.NewFlagSet("serve").SetParent(parent)
	var (
		addr        = fs.StringLong("addr", ":8080", "HTTP listen address")
		storagePath = fs.StringLong("storage", "./documents", "Directory uploaded files are kept in")
		maxUploadMB = fs.IntLong("max-upload-mb", 32, "Maximum upload size in megabytes")
	)

	return &ff.Command{
		Name:      "serve",
		Usage:     "duex serve [FLAGS]",
		ShortHelp: "run the upload API",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			ex, err := s.setup()
			if err != nil {
				return err
			}

			slog.Info("Initializing upload log...")
			uploads, err := s.openUploadLog(ctx)
			if err != nil {
				return err
			}
			defer uploads.Close()

			slog.Info("Initializing storage...", "path", *storagePath)
			files, err := storage.NewLocalFiles(*storagePath)
			if err != nil {
				return err
			}

			h := &api.Handler{
				Extractor: ex,
				Files:     files,
				Uploads:   uploads,
			}
			app := api.NewApp(h, api.AppConfig{BodyLimit: *maxUploadMB << 20})

			errc := make(chan error, 1)
			go func() {
				slog.Info("Starting server", "addr", *addr, "version", version)
				errc <- app.Listen(*addr)
			}()

			select {
			case err := <-errc:
				return fmt.Errorf("server error: %w", err)
			case <-ctx.Done():
			}

			slog.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			slog.Info("Server stopped")
			return nil
		},
	}
}

func newExtractCommand(parent *ff.FlagSet, s settings) *ff.Command {
	fs := ff.NewFlagSet("extract").SetParent(parent)
	var (
		format = fs.StringLong("format", "json", "Output format: json or csv")
		output = fs.StringLong("output", "", "Output file path (defaults to stdout)")
		today  = fs.StringLong("today", "", "Evaluate due dates as of this YYYY-MM-DD day")
		header = fs.BoolDefault(0, "header", true, "Include the column header row in CSV output")
	)

	return &ff.Command{
		Name:      "extract",
		Usage:     "duex extract [FLAGS] <file.csv|file.xlsx|file.xls> ...",
		ShortHelp: "print the due records of local files",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return errors.New("extract requires at least one input file")
			}
			if *format != "json" && *format != "csv" {
				return fmt.Errorf("unknown format %q (must be json or csv)", *format)
			}

			ex, err := s.setup()
			if err != nil {
				return err
			}
			if *today != "" {
				day, err := time.ParseInLocation("2006-01-02", *today, ex.Now().Location())
				if err != nil {
					return fmt.Errorf("invalid --today: %w", err)
				}
				ex.Now = func() time.Time { return day }
			}

			var records []models.DueRecord
			for _, path := range args {
				got, err := extractFile(ex, path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				records = append(records, got...)
			}
			if records == nil {
				records = []models.DueRecord{}
			}

			if *format == "csv" {
				w := &writer.CSVWriter{IncludeHeader: *header}
				if *output != "" {
					return w.WriteToFile(*output, records)
				}
				return w.Write(os.Stdout, records)
			}

			out := os.Stdout
			if *output != "" {
				f, err := os.Create(*output)
				if err != nil {
					return fmt.Errorf("failed to create output file %q: %w", *output, err)
				}
				defer f.Close()
				out = f
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
}

func newUploadsCommand(parent *ff.FlagSet, s settings) *ff.Command {
	fs := ff.NewFlagSet("uploads").SetParent(parent)

	return &ff.Command{
		Name:      "uploads",
		Usage:     "duex uploads [FLAGS]",
		ShortHelp: "list processed uploads, newest first",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if _, err := s.setup(); err != nil {
				return err
			}
			log, err := s.openUploadLog(ctx)
			if err != nil {
				return err
			}
			defer log.Close()

			uploads, err := log.List(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(uploads)
		},
	}
}

func extractFile(ex *extractor.Extractor, path string) ([]models.DueRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res, err := ex.Process(data, mime.TypeByExtension(filepath.Ext(path)))
	if err != nil {
		return nil, err
	}
	slog.Info("Processed file", "file", path, "due_records", len(res.DueRecords))
	return res.DueRecords, nil
}

// setup installs the logger and builds the extractor from the shared flags.
func (s settings) setup() (*extractor.Extractor, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(*s.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	loc, err := time.LoadLocation(*s.timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid --timezone: %w", err)
	}
	if *s.overdueDays < 0 || *s.aheadDays < 0 {
		return nil, errors.New("--overdue-days and --ahead-days must not be negative")
	}

	ex := extractor.New()
	ex.Window = extractor.Window{Min: -*s.overdueDays, Max: *s.aheadDays}
	ex.Now = func() time.Time { return time.Now().In(loc) }
	slog.Debug("Extraction window", "min", ex.Window.Min, "max", ex.Window.Max,
		"today", duedate.Midnight(ex.Now()).Format("2006-01-02"))
	return ex, nil
}

func (s settings) openUploadLog(ctx context.Context) (storage.UploadLog, error) {
	if *s.databaseURL != "" {
		return storage.NewPostgresLog(ctx, *s.databaseURL)
	}
	return storage.NewBoltLog(*s.dbPath)
}
