// Package service provides the import orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-tracker/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-tracker/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
	"github.com/FACorreiaa/statement-tracker/pkg/storage"
)

// ErrNotPDF is returned for input files without a .pdf extension.
var ErrNotPDF = errors.New("input is not a pdf file")

const fingerprintLines = 5

// DocumentSource extracts the text and tables of a statement file.
type DocumentSource interface {
	Load(ctx context.Context, path string) (*parser.Document, error)
}

// Categorizer assigns categories to uncategorized transactions in place.
type Categorizer interface {
	CategorizeAll(txs []statement.Transaction) int
}

// Repository stores parsed transactions, skipping duplicates.
type Repository interface {
	AddAll(ctx context.Context, txs []statement.Transaction) (added, duplicates int, err error)
}

// Options tune a single import.
type Options struct {
	// Bank forces a parser ("tbank", "alfa", "yandex", "ozon"); empty means detect.
	Bank string
	// DryRun parses and categorizes without storing.
	DryRun bool
	// Archive copies the source file into storage when one is configured.
	Archive bool
}

// Result contains the outcome of importing one statement.
type Result struct {
	JobID       uuid.UUID
	Path        string
	Bank        string
	Added       int
	Duplicates  int
	Categorized int
	Income      decimal.Decimal
	Expense     decimal.Decimal
	Mismatches  []statement.Mismatch
	Fingerprint string
	Archived    *storage.FileInfo
	Statement   *statement.Statement
}

// ImportService orchestrates extraction, parsing, categorization and storage.
type ImportService struct {
	source      DocumentSource
	registry    *parser.Registry
	categorizer Categorizer
	repo        Repository
	archive     storage.Storage // optional
	metrics     *Metrics
	tracer      trace.Tracer
	workers     int
	logger      *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(source DocumentSource, registry *parser.Registry, categorizer Categorizer, repo Repository, logger *slog.Logger) *ImportService {
	return &ImportService{
		source:      source,
		registry:    registry,
		categorizer: categorizer,
		repo:        repo,
		metrics:     NewMetrics(nil),
		tracer:      otel.Tracer("github.com/FACorreiaa/statement-tracker/import"),
		logger:      logger,
	}
}

// WithStorage enables archiving of imported files.
func (s *ImportService) WithStorage(archive storage.Storage) *ImportService {
	s.archive = archive
	return s
}

// WithMetrics replaces the default unregistered metrics.
func (s *ImportService) WithMetrics(m *Metrics) *ImportService {
	s.metrics = m
	return s
}

// WithWorkers sets the batch import concurrency. Zero means GOMAXPROCS.
func (s *ImportService) WithWorkers(n int) *ImportService {
	s.workers = n
	return s
}

// Import parses one statement file and stores its transactions.
func (s *ImportService) Import(ctx context.Context, path string, opts Options) (_ *Result, err error) {
	ctx, span := s.tracer.Start(ctx, "import.Import", trace.WithAttributes(
		attribute.String("import.path", path),
		attribute.Bool("import.dry_run", opts.DryRun),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		s.metrics.Failures.WithLabelValues("validate").Inc()
		return nil, fmt.Errorf("%w: %s", ErrNotPDF, path)
	}

	result := &Result{JobID: uuid.New(), Path: path}
	log := s.logger.With(slog.String("job_id", result.JobID.String()), slog.String("path", path))

	doc, err := s.source.Load(ctx, path)
	if err != nil {
		s.metrics.Failures.WithLabelValues("extract").Inc()
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	p, err := s.selectParser(doc, opts.Bank)
	if err != nil {
		s.metrics.Failures.WithLabelValues("detect").Inc()
		return nil, err
	}
	result.Bank = p.Bank()
	span.SetAttributes(attribute.String("import.bank", result.Bank))
	log = log.With(slog.String("bank", result.Bank))

	firstPage := doc.FirstPageText()
	result.Fingerprint = sniffer.Fingerprint(firstPage, fingerprintLines)
	if dialect := sniffer.ProbeDialect(firstPage); dialect.Samples > 0 {
		log.Debug("probed amount dialect",
			slog.String("decimal_separator", string(dialect.DecimalSeparator)),
			slog.String("currency", dialect.CurrencyHint),
			slog.Float64("confidence", dialect.Confidence),
		)
	}

	stmt, err := p.Parse(doc)
	if err != nil {
		s.metrics.Failures.WithLabelValues("parse").Inc()
		return nil, fmt.Errorf("parse %s statement: %w", result.Bank, err)
	}
	result.Statement = stmt
	s.metrics.Statements.WithLabelValues(result.Bank).Inc()
	s.metrics.Transactions.WithLabelValues(result.Bank).Observe(float64(len(stmt.Transactions)))

	if len(stmt.Transactions) == 0 {
		log.Warn("statement contains no transactions")
	}

	result.Mismatches = stmt.Reconcile()
	for _, m := range result.Mismatches {
		log.Warn("statement totals do not reconcile", slog.String("mismatch", m.String()))
	}

	result.Categorized = s.categorizer.CategorizeAll(stmt.Transactions)
	result.Income = stmt.TotalIncome()
	result.Expense = stmt.TotalExpense()

	if opts.Archive && s.archive != nil {
		info, err := s.archiveFile(ctx, result.Bank, path)
		if err != nil {
			// Archive failures are non-fatal.
			s.metrics.Failures.WithLabelValues("archive").Inc()
			log.Warn("failed to archive statement", slog.Any("error", err))
		} else {
			result.Archived = info
		}
	}

	if opts.DryRun {
		log.Info("dry run: statement parsed",
			slog.Int("transactions", len(stmt.Transactions)),
			slog.String("income", result.Income.StringFixed(2)),
			slog.String("expense", result.Expense.StringFixed(2)),
		)
		return result, nil
	}

	added, duplicates, err := s.repo.AddAll(ctx, stmt.Transactions)
	result.Added, result.Duplicates = added, duplicates
	s.metrics.Imported.WithLabelValues(result.Bank).Add(float64(added))
	s.metrics.Duplicates.WithLabelValues(result.Bank).Add(float64(duplicates))
	if err != nil {
		s.metrics.Failures.WithLabelValues("store").Inc()
		return result, fmt.Errorf("store transactions: %w", err)
	}
	span.SetAttributes(attribute.Int("import.added", added), attribute.Int("import.duplicates", duplicates))

	log.Info("statement imported",
		slog.Int("transactions", len(stmt.Transactions)),
		slog.Int("added", added),
		slog.Int("duplicates", duplicates),
		slog.Int("categorized", result.Categorized),
	)
	return result, nil
}

func (s *ImportService) selectParser(doc *parser.Document, bank string) (parser.Parser, error) {
	if bank != "" {
		return s.registry.Lookup(bank)
	}
	return s.registry.Detect(doc)
}

func (s *ImportService) archiveFile(ctx context.Context, bank, path string) (*storage.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open for archive: %w", err)
	}
	defer f.Close()

	info, stored, err := s.archive.Store(ctx, bank, filepath.Base(path), "application/pdf", f)
	if err != nil {
		return nil, err
	}
	if !stored {
		s.logger.Debug("statement already archived", slog.String("file_id", info.ID.String()))
	}
	return info, nil
}

// BatchItem is the outcome of one file in a batch import.
type BatchItem struct {
	Path   string
	Result *Result
	Err    error
}

type batchJob struct {
	index int
	path  string
}

// ImportBatch imports files concurrently and returns one item per path in
// input order. Failures are reported per item and do not stop the batch.
func (s *ImportService) ImportBatch(ctx context.Context, paths []string, opts Options) []BatchItem {
	items := make([]BatchItem, len(paths))
	if len(paths) == 0 {
		return items
	}

	workerCount := s.workers
	if workerCount <= 0 {
		workerCount = runtime.GOMAXPROCS(0)
	}
	workerCount = min(workerCount, len(paths))

	jobs := make(chan batchJob, workerCount*2)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				item := BatchItem{Path: job.path}
				if err := ctx.Err(); err != nil {
					item.Err = err
				} else {
					item.Result, item.Err = s.Import(ctx, job.path, opts)
				}
				items[job.index] = item
			}
		}()
	}

	for i, p := range paths {
		jobs <- batchJob{index: i, path: p}
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
		}
	}
	s.logger.Info("batch import finished",
		slog.Int("files", len(paths)),
		slog.Int("failed", failed),
		slog.Int("workers", workerCount),
	)
	return items
}
