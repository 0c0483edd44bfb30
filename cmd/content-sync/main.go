package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/jaki95/studio-eighty7/config"
	"github.com/jaki95/studio-eighty7/internal/content"
	"github.com/jaki95/studio-eighty7/internal/domain"
	"github.com/jaki95/studio-eighty7/internal/logging"
	"github.com/jaki95/studio-eighty7/internal/storage"
	"github.com/jaki95/studio-eighty7/snapshot"
)

type options struct {
	configPath string
	envFile    string
	archive    string
	outDir     string
	prefix     string
	only       string
	workers    int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "./config/config.yaml", "Path to the YAML config file")
	flag.StringVar(&opts.envFile, "env-file", ".env", "Optional dotenv file")
	flag.StringVar(&opts.archive, "archive", "local", "Where to write the snapshot: local or gcs")
	flag.StringVar(&opts.outDir, "out", "data", "Directory for the local archive")
	flag.StringVar(&opts.prefix, "prefix", "snapshots/", "Name prefix for snapshot documents")
	flag.StringVar(&opts.only, "resources", "", "Comma separated resources to fetch (default: all)")
	flag.IntVar(&opts.workers, "workers", 4, "Maximum concurrent fetches")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	cfg, err := config.LoadWithEnv(opts.configPath, opts.envFile)
	if err != nil {
		return err
	}

	resources, err := parseResources(opts.only)
	if err != nil {
		return err
	}

	// Logs only go to the log file, if any, so they don't tear the bar
	logger, closer := logging.New(io.Discard, logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	archive, err := storage.New(ctx, storage.Config{
		Type:            opts.archive,
		Dir:             opts.outDir,
		Bucket:          cfg.Contact.Bucket,
		ObjectPrefix:    cfg.Contact.ObjectPrefix,
		CredentialsFile: cfg.Contact.CredentialsFile,
	})
	if err != nil {
		return err
	}
	defer archive.Close()

	source := content.NewWordPressSource(cfg.Content.BaseURL,
		content.WithHTTPClient(&http.Client{Timeout: cfg.Content.Timeout}),
		content.WithResolveLimit(cfg.Content.ResolveLimit),
		content.WithLogger(logger),
	)
	fetcher := content.NewFetcher(source, logger)

	syncer := snapshot.NewSyncer(fetcher, archive)
	bar := snapshot.NewBar(len(resources))

	report, err := syncer.Sync(ctx, &snapshot.Options{
		Resources:          resources,
		Prefix:             opts.prefix,
		MaxConcurrentTasks: opts.workers,
	}, bar)
	fmt.Println()
	if err != nil {
		return err
	}

	fmt.Printf("Snapshot written: %s (%d stored)\n", report.Name, report.Stored)
	fmt.Printf("Live: %s\n", joinResources(report.Live))
	fmt.Printf("Fallback: %s\n", joinResources(report.Fallback))
	fmt.Printf("Changed: %s\n", joinResources(report.Changed))
	return nil
}

func parseResources(s string) ([]domain.Resource, error) {
	if strings.TrimSpace(s) == "" {
		return snapshot.AllResources, nil
	}
	var out []domain.Resource
	for _, part := range strings.Split(s, ",") {
		r, ok := domain.ParseResource(strings.TrimSpace(part))
		if !ok {
			return nil, fmt.Errorf("unknown resource %q", part)
		}
		out = append(out, r)
	}
	return out, nil
}

func joinResources(rs []domain.Resource) string {
	if len(rs) == 0 {
		return "none"
	}
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
