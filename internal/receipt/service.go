package receipt

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mwurst/bontrack/internal/parsing"
)

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Upload is one incoming document, from the HTTP API or the mailbox fetcher.
type Upload struct {
	Filename string
	Data     []byte
}

// BatchResult summarizes a batch ingest.
type BatchResult struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// Service handles receipt operations
type Service struct {
	db          DB
	extractor   parsing.Extractor
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, extractor parsing.Extractor, storage Storage) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor parsing.Extractor, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// ScanReceipt extracts and parses a document without persisting anything.
// Each parse is a pure function of the input, so a dry run costs nothing.
func (s *Service) ScanReceipt(filename string, data []byte) (*Receipt, error) {
	text, err := s.extractor.ExtractText(data)
	if err != nil {
		slog.Error("Failed to extract text",
			"filename", filename,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	result := parsing.Parse(text)
	consistent, difference := result.Receipt.Validate()

	return &Receipt{
		Receipt:     *result.Receipt,
		ContentType: "application/pdf",
		Consistent:  consistent,
		Difference:  difference,
		Warnings:    result.Warnings,
	}, nil
}

// ProcessReceipt extracts, parses and archives a receipt: the original bytes
// go to storage, the parsed record to the database. A duplicate
// (date, time, bon_nr) triple yields ErrDuplicateReceipt and leaves nothing
// behind.
func (s *Service) ProcessReceipt(filename string, data []byte) (*Receipt, error) {
	receipt, err := s.ScanReceipt(filename, data)
	if err != nil {
		return nil, err
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	receipt.ID = id
	receipt.CreatedAt = now
	receipt.UpdatedAt = now

	if !receipt.Consistent {
		slog.Warn("Receipt total does not match item sum",
			"filename", filename,
			"total_amount", receipt.TotalAmount,
			"difference", receipt.Difference,
		)
	}

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}
	receipt.Filename = savedPath

	if err := s.db.SaveReceipt(receipt); err != nil {
		s.storage.Delete(savedPath)
		if errors.Is(err, ErrDuplicateReceipt) {
			return nil, err
		}
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	return receipt, nil
}

// ProcessBatch archives a batch of documents and reports what happened to
// each, so an upstream mailbox run can log a summary. One malformed receipt
// never aborts the batch.
func (s *Service) ProcessBatch(uploads []Upload) BatchResult {
	var result BatchResult
	for _, upload := range uploads {
		receipt, err := s.ProcessReceipt(upload.Filename, upload.Data)
		switch {
		case errors.Is(err, ErrDuplicateReceipt):
			result.Duplicates++
			slog.Info("Skipped duplicate receipt", "filename", upload.Filename)
		case err != nil:
			result.Errors++
			slog.Error("Failed to process receipt", "filename", upload.Filename, "error", err)
		default:
			result.Inserted++
			slog.Info("Archived receipt",
				"filename", upload.Filename,
				"id", receipt.ID,
				"items", len(receipt.Items),
				"total_amount", receipt.TotalAmount,
			)
		}
	}
	return result
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if err := s.storage.Delete(receipt.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the original document for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}
