package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/mwurst/bontrack/internal/mailbox"
	"github.com/mwurst/bontrack/internal/parsing"
	"github.com/mwurst/bontrack/internal/receipt"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("bontrack")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "bontrack.db", "Database file path")
		storagePath = fs.StringLong("storage", "./receipts", "Storage directory path")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		fetchMail   = fs.BoolLong("fetch", "Fetch receipt PDFs from the mailbox once, archive them, and exit")
		imapAddr    = fs.StringLong("imap-server", "", "IMAP server address, host:port (or set BONTRACK_IMAP_SERVER)")
		imapUser    = fs.StringLong("imap-username", "", "IMAP account username (or set BONTRACK_IMAP_USERNAME)")
		imapToken   = fs.StringLong("imap-token", "", "IMAP account password/app token (or set BONTRACK_IMAP_TOKEN)")
		imapMailbox = fs.StringLong("imap-mailbox", "INBOX", "IMAP mailbox to scan")
		imapFrom    = fs.StringLong("imap-from", "", "Only fetch messages from this sender")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BONTRACK"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	receiptService := receipt.NewService(db, parsing.NewPDFExtractor(), store)

	if *fetchMail {
		fetcher, err := mailbox.NewIMAPFetcher(mailbox.Config{
			Addr:     *imapAddr,
			Username: *imapUser,
			Password: *imapToken,
			Mailbox:  *imapMailbox,
			From:     *imapFrom,
		})
		if err != nil {
			slog.Error("Failed to configure mailbox", "error", err)
			os.Exit(1)
		}

		attachments, err := fetcher.Fetch()
		if err != nil {
			slog.Error("Failed to fetch mailbox", "error", err)
			os.Exit(1)
		}

		uploads := make([]receipt.Upload, 0, len(attachments))
		for _, a := range attachments {
			uploads = append(uploads, receipt.Upload{Filename: a.Filename, Data: a.Data})
		}
		result := receiptService.ProcessBatch(uploads)
		slog.Info("Mailbox run finished",
			"inserted", result.Inserted,
			"duplicates", result.Duplicates,
			"errors", result.Errors,
		)
		if result.Errors > 0 {
			os.Exit(1)
		}
		return
	}

	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(receiptService, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
