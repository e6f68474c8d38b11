package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FACorreiaa/statement-tracker/cmd/statements/app"
	"github.com/FACorreiaa/statement-tracker/internal/domain/export"
	importservice "github.com/FACorreiaa/statement-tracker/internal/domain/import/service"
	"github.com/FACorreiaa/statement-tracker/internal/domain/reports"
	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
	"github.com/FACorreiaa/statement-tracker/internal/domain/transactions"
	"github.com/FACorreiaa/statement-tracker/pkg/money"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// periodFlags selects a date range either by --from/--to or by --month/--year.
type periodFlags struct {
	from, to    string
	month, year int
}

func (p *periodFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&p.from, "from", "", "start date (DD.MM.YYYY)")
	fs.StringVar(&p.to, "to", "", "end date (DD.MM.YYYY), inclusive")
	fs.IntVar(&p.month, "month", 0, "month (1-12)")
	fs.IntVar(&p.year, "year", 0, "year, e.g. 2026")
}

func (p periodFlags) period(now time.Time) (reports.Period, error) {
	var out reports.Period

	if p.month != 0 || p.year != 0 {
		if p.from != "" || p.to != "" {
			return out, errors.New("--month/--year cannot be combined with --from/--to")
		}
		if p.month < 0 || p.month > 12 {
			return out, fmt.Errorf("invalid month %d", p.month)
		}
		y, m := p.year, time.Month(p.month)
		if y == 0 {
			y = now.Year()
		}
		start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		if p.month == 0 {
			start = time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
			end = start.AddDate(1, 0, 0).Add(-time.Nanosecond)
		}
		return reports.Period{From: &start, To: &end}, nil
	}

	if p.from != "" {
		t, err := money.ParseDate(p.from)
		if err != nil {
			return out, err
		}
		out.From = &t
	}
	if p.to != "" {
		t, err := money.ParseDate(p.to)
		if err != nil {
			return out, err
		}
		end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		out.To = &end
	}
	if out.From != nil && out.To != nil && out.To.Before(*out.From) {
		return out, errors.New("--to is before --from")
	}
	return out, nil
}

func parseCategoryFlag(s string) (*statement.Category, error) {
	if s == "" {
		return nil, nil
	}
	c, err := statement.ParseCategory(s)
	if err != nil {
		labels := make([]string, 0, len(statement.Categories()))
		for _, cat := range statement.Categories() {
			labels = append(labels, cat.Label())
		}
		return nil, fmt.Errorf("категория %q не найдена, доступны: %s", s, strings.Join(labels, ", "))
	}
	return &c, nil
}

func runImport(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("import")
	bank := fs.String("bank", "", "force a bank parser (tbank, alfa, yandex, ozon)")
	dryRun := fs.Bool("dry-run", false, "parse and categorize without storing")
	archive := fs.Bool("archive", true, "copy the statement into the archive storage")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: statements import [options] <statement.pdf>...")
		fs.PrintDefaults()
		return errUsage
	}

	opts := importservice.Options{Bank: *bank, DryRun: *dryRun, Archive: *archive}
	currency := a.Config.Import.HomeCurrency

	items := a.Import.ImportBatch(ctx, fs.Args(), opts)
	failed := 0
	for _, item := range items {
		fmt.Fprintf(out, "Импорт файла: %s\n", item.Path)
		if item.Err != nil {
			failed++
			fmt.Fprintf(out, "  Ошибка: %v\n\n", item.Err)
			continue
		}
		writeImportResult(out, item.Result, currency, *dryRun)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", failed, len(items))
	}
	return nil
}

func writeImportResult(out io.Writer, res *importservice.Result, currency string, dryRun bool) {
	fmt.Fprintf(out, "  Банк: %s\n", res.Bank)
	if len(res.Statement.Transactions) == 0 {
		fmt.Fprintln(out, "  Предупреждение: транзакции не найдены в файле")
	}
	if dryRun {
		fmt.Fprintf(out, "  Найдено: %d транзакций (пробный запуск, ничего не сохранено)\n", len(res.Statement.Transactions))
	} else {
		fmt.Fprintf(out, "  Добавлено: %d транзакций\n", res.Added)
		if res.Duplicates > 0 {
			fmt.Fprintf(out, "  Пропущено (дубликаты): %d\n", res.Duplicates)
		}
	}
	for _, m := range res.Mismatches {
		fmt.Fprintf(out, "  Итоги не сходятся: %s\n", m)
	}
	fmt.Fprintf(out, "  Пополнения в выписке: %s\n", money.FormatSigned(res.Income, currency))
	fmt.Fprintf(out, "  Расходы в выписке: %s\n\n", money.Format(res.Expense.Neg(), currency))
}

func runList(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("list")
	var pf periodFlags
	pf.register(fs)
	category := fs.String("category", "", "filter by category key or label")
	bank := fs.String("bank", "", "filter by bank, e.g. T-Bank")
	limit := fs.Int("limit", 0, "maximum number of transactions")
	query := fs.String("query", "", "full-text search over descriptions")
	includeTransfers := fs.Bool("include-internal-transfers", false, "include transfers between own accounts")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	period, err := pf.period(time.Now())
	if err != nil {
		return err
	}
	cat, err := parseCategoryFlag(*category)
	if err != nil {
		return err
	}

	filter := transactions.Filter{
		Category:                 cat,
		From:                     period.From,
		To:                       period.To,
		Bank:                     *bank,
		IncludeInternalTransfers: *includeTransfers,
	}
	if *query == "" {
		filter.Limit = *limit
	}
	items, err := a.Transactions.List(ctx, filter)
	if err != nil {
		return err
	}

	if *query != "" {
		items, err = search(items, *query, *limit)
		if err != nil {
			return err
		}
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "Транзакции не найдены")
		return nil
	}

	heading := "Транзакции"
	if cat != nil {
		heading += " (" + cat.Label() + ")"
	}
	return reports.WriteTransactions(out, heading, items)
}

// search ranks items by a full-text query over their descriptions.
func search(items []transactions.StoredTransaction, query string, limit int) ([]transactions.StoredTransaction, error) {
	index, err := transactions.NewSearchIndex("")
	if err != nil {
		return nil, err
	}
	defer index.Close()

	if err := index.Index(items...); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = len(items)
	}

	var hits []transactions.SearchHit
	if strings.ContainsAny(query, "+-:\"") {
		hits, err = index.SearchAdvanced(query, limit)
	} else if utf8.RuneCountInString(query) < 4 {
		hits, err = index.SearchPrefix(strings.ToLower(query), limit)
	} else {
		hits, err = index.Search(query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	out := make([]transactions.StoredTransaction, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Transaction)
	}
	return out, nil
}

func runSummary(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("summary")
	var pf periodFlags
	pf.register(fs)
	includeTransfers := fs.Bool("include-internal-transfers", false, "include transfers between own accounts")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	period, err := pf.period(time.Now())
	if err != nil {
		return err
	}

	summary, err := a.Reports(*includeTransfers).Summary(ctx, period)
	if err != nil {
		return err
	}
	return reports.WriteSummary(out, summary, a.Config.Import.HomeCurrency)
}

func runTop(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("top")
	var pf periodFlags
	pf.register(fs)
	category := fs.String("category", "", "filter by category key or label")
	limit := fs.Int("limit", 10, "number of rows")
	merchants := fs.Bool("merchants", false, "group by merchant instead of listing transactions")
	includeTransfers := fs.Bool("include-internal-transfers", false, "include transfers between own accounts")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	period, err := pf.period(time.Now())
	if err != nil {
		return err
	}
	cat, err := parseCategoryFlag(*category)
	if err != nil {
		return err
	}

	svc := a.Reports(*includeTransfers)
	suffix := ""
	if cat != nil {
		suffix = " (" + cat.Label() + ")"
	}
	if p := period.String(); p != "" {
		suffix += " (" + p + ")"
	}

	if *merchants {
		if cat != nil {
			return errors.New("--merchants cannot be combined with --category")
		}
		totals, err := svc.TopMerchants(ctx, period, *limit)
		if err != nil {
			return err
		}
		return reports.WriteMerchants(out, fmt.Sprintf("Топ %d продавцов%s", *limit, suffix), totals, a.Config.Import.HomeCurrency)
	}

	items, err := svc.TopExpenses(ctx, period, *limit, cat)
	if err != nil {
		return err
	}
	return reports.WriteTransactions(out, fmt.Sprintf("Топ %d расходов%s", *limit, suffix), items)
}

func runCategories(_ context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("categories")
	rules := fs.Bool("rules", false, "show rule evaluation order")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	fmt.Fprintln(out, "Доступные категории:")
	for _, c := range statement.Categories() {
		fmt.Fprintf(out, "  • %-14s %s\n", c, c.Label())
	}

	if *rules {
		fmt.Fprintln(out, "\nПорядок правил:")
		for i, r := range a.Engine.Rules() {
			fmt.Fprintf(out, "  %2d. %-14s шаблонов: %d\n", i+1, r.Category, r.Patterns)
		}
	}
	return nil
}

func runExport(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("export")
	var pf periodFlags
	pf.register(fs)
	output := fs.String("o", "", "output file (.xlsx or .csv)")
	format := fs.String("format", "", "xlsx or csv, defaults to the output extension")
	delimiter := fs.String("delimiter", ",", "CSV field separator")
	category := fs.String("category", "", "filter by category key or label")
	includeTransfers := fs.Bool("include-internal-transfers", false, "include transfers between own accounts")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *output == "" {
		fmt.Fprintln(os.Stderr, "Usage: statements export -o <file> [options]")
		fs.PrintDefaults()
		return errUsage
	}

	kind := strings.ToLower(*format)
	if kind == "" {
		kind = strings.TrimPrefix(strings.ToLower(filepath.Ext(*output)), ".")
	}
	if kind != "xlsx" && kind != "csv" {
		return fmt.Errorf("unsupported export format %q", kind)
	}

	period, err := pf.period(time.Now())
	if err != nil {
		return err
	}
	cat, err := parseCategoryFlag(*category)
	if err != nil {
		return err
	}

	items, err := a.Transactions.List(ctx, transactions.Filter{
		Category:                 cat,
		From:                     period.From,
		To:                       period.To,
		IncludeInternalTransfers: *includeTransfers,
	})
	if err != nil {
		return err
	}

	switch kind {
	case "xlsx":
		err = export.WriteXLSX(*output, items)
	case "csv":
		err = writeCSVFile(*output, items, *delimiter)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Экспортировано %d транзакций в %s\n", len(items), *output)
	return nil
}

func writeCSVFile(path string, items []transactions.StoredTransaction, delimiter string) (err error) {
	r, size := utf8.DecodeRuneInString(delimiter)
	if size == 0 || size != len(delimiter) {
		return fmt.Errorf("delimiter must be a single character, got %q", delimiter)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return export.WriteCSV(f, items, export.WithDelimiter(r))
}

func runMigrate(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("migrate")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	checked, updated, err := a.Categorization.Migrate(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Проверено: %d, обновлено: %d\n", checked, updated)
	return nil
}

func runServeCron(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("serve-cron")
	runNow := fs.Bool("run-now", false, "run the migration once at startup")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	scheduler := a.Scheduler()
	if *runNow {
		if res := scheduler.RunNow(ctx); res.Err != nil {
			return res.Err
		}
	}
	if err := scheduler.Start(); err != nil {
		return err
	}

	var srv *http.Server
	if a.Config.Observability.MetricsEnabled {
		srv = a.MetricsServer()
		go func() {
			a.Logger.Info("metrics server listening", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.Error("metrics server failed", slog.Any("error", err))
			}
		}()
	}

	fmt.Fprintf(out, "Миграция категорий по расписанию %q, Ctrl+C для остановки\n", a.Config.Migration.Schedule)
	<-ctx.Done()

	<-scheduler.Stop().Done()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
	}
	return nil
}

func runClear(ctx context.Context, a *app.App, out io.Writer, args []string) error {
	fs := newFlagSet("clear")
	yes := fs.Bool("yes", false, "confirm deletion of all stored transactions")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to clear without --yes")
	}

	if err := a.Transactions.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Все транзакции удалены")
	return nil
}
