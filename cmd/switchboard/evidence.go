package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"switchboard-hq/switchboard/pkg/cli"
	"switchboard-hq/switchboard/pkg/config"
	"switchboard-hq/switchboard/pkg/evidence"
	"switchboard-hq/switchboard/pkg/evidence/export"
	"switchboard-hq/switchboard/pkg/evidence/query"
	"switchboard-hq/switchboard/pkg/evidence/retention"
)

var evidenceFlags struct {
	backend   string
	db        string
	api       string
	operation string
	state     string
	errorKind string
	requestID string
	since     string
	until     string
	limit     int
	offset    int
	sort      string
	format    string
	output    string
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Query evidence records",
	Long: `Query, export and prune the execution records written by the gateway.

Every executed assembly leaves one record: the matched API and operation, the
final state and status, the error kind of an uncaught failure, and the
policies that ran.

Subcommands:
  query   - List records matching filters
  export  - Write every matching record as JSON or CSV
  prune   - Apply the retention policy once`,
}

var evidenceQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query evidence records",
	Long: `List records matching the given filters, newest first.

--since and --until take an RFC3339 timestamp or a duration relative to now.

Examples:
  # Failures in the last hour
  switchboard evidence query --state failed --since 1h

  # One API, as JSON
  switchboard evidence query --api "Orders@1.0.0" --format json

  # Follow one request
  switchboard evidence query --request-id 3f1c9a`,
	RunE: queryEvidence,
}

var evidenceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export evidence records",
	Long: `Write every record matching the filters as JSON or CSV, oldest first.

Examples:
  switchboard evidence export --format csv --output evidence.csv
  switchboard evidence export --since 2026-01-01T00:00:00Z --until 2026-02-01T00:00:00Z`,
	RunE: exportEvidence,
}

var evidencePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention policy now",
	Long: `Delete records older than evidence.retention.days and the oldest records
beyond evidence.retention.max_records, archiving them first when
evidence.retention.archive_path is set.`,
	RunE: pruneEvidence,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceQueryCmd, evidenceExportCmd, evidencePruneCmd)

	evidenceCmd.PersistentFlags().StringVar(&evidenceFlags.backend, "backend", "", "backend: sqlite, memory (uses config if not specified)")
	evidenceCmd.PersistentFlags().StringVar(&evidenceFlags.db, "db", "", "SQLite database path (uses config if not specified)")

	for _, c := range []*cobra.Command{evidenceQueryCmd, evidenceExportCmd} {
		c.Flags().StringVar(&evidenceFlags.api, "api", "", "filter by API (title@version)")
		c.Flags().StringVar(&evidenceFlags.operation, "operation", "", `filter by operation ("verb path")`)
		c.Flags().StringVar(&evidenceFlags.state, "state", "", "filter by state: succeeded, failed, timed_out")
		c.Flags().StringVar(&evidenceFlags.errorKind, "error-kind", "", "filter by error kind")
		c.Flags().StringVar(&evidenceFlags.requestID, "request-id", "", "filter by request ID")
		c.Flags().StringVar(&evidenceFlags.since, "since", "", "only records at or after this time")
		c.Flags().StringVar(&evidenceFlags.until, "until", "", "only records at or before this time")
		c.Flags().StringVarP(&evidenceFlags.output, "output", "o", "", "output file (default: stdout)")
	}
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.limit, "limit", query.DefaultLimit, "max results")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.offset, "offset", 0, "pagination offset")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.sort, "sort", "desc", "sort order: asc, desc")
	evidenceQueryCmd.Flags().StringVarP(&evidenceFlags.format, "format", "f", "text", "output format: text, json")
	evidenceExportCmd.Flags().StringVarP(&evidenceFlags.format, "format", "f", export.FormatJSON, "export format: json, csv")
}

// evidenceConfig loads the evidence section and applies the --backend and
// --db overrides.
func evidenceConfig() (*config.EvidenceConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	ec := cfg.Evidence
	if evidenceFlags.backend != "" {
		ec.Backend = evidenceFlags.backend
	}
	if evidenceFlags.db != "" {
		ec.SQLite.Path = evidenceFlags.db
	}
	return &ec, nil
}

// buildEvidenceQuery translates the filter flags into a query.
func buildEvidenceQuery(now time.Time) (*evidence.Query, error) {
	q := &evidence.Query{
		API:       evidenceFlags.api,
		Operation: evidenceFlags.operation,
		State:     evidenceFlags.state,
		ErrorKind: evidenceFlags.errorKind,
		RequestID: evidenceFlags.requestID,
		Limit:     evidenceFlags.limit,
		Offset:    evidenceFlags.offset,
		SortOrder: evidenceFlags.sort,
	}
	var err error
	if q.StartTime, err = parseTimeFlag("since", evidenceFlags.since, now); err != nil {
		return nil, err
	}
	if q.EndTime, err = parseTimeFlag("until", evidenceFlags.until, now); err != nil {
		return nil, err
	}
	if err := query.Validate(q); err != nil {
		return nil, cli.NewConfigError("query", err.Error())
	}
	query.ApplyDefaults(q)
	return q, nil
}

// parseTimeFlag accepts an RFC3339 timestamp or a duration before now.
func parseTimeFlag(name, value string, now time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return nil, cli.NewConfigError(name, fmt.Sprintf("%q is neither an RFC3339 time nor a positive duration", value))
	}
	t := now.Add(-d)
	return &t, nil
}

// openOutput returns the --output file, or w when no file was named.
func openOutput(w io.Writer) (io.Writer, func() error, error) {
	if evidenceFlags.output == "" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(evidenceFlags.output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func queryEvidence(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(evidenceFlags.format)
	if err != nil {
		return err
	}
	q, err := buildEvidenceQuery(time.Now())
	if err != nil {
		return err
	}
	ec, err := evidenceConfig()
	if err != nil {
		return err
	}
	store, err := openEvidenceStorage(ec, quietLogger())
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}
	defer store.Close()

	ctx := commandContext(cmd)
	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("query failed: %w", err))
	}
	total, err := store.Count(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("count failed: %w", err))
	}

	out, closeOut, err := openOutput(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	result := &queryResult{Total: total, Offset: q.Offset, Records: records}
	if result.Records == nil {
		result.Records = []*evidence.Record{}
	}
	return cli.NewFormatter(format).FormatTo(out, result)
}

// queryResult is one page of query results.
type queryResult struct {
	Total   int64              `json:"total_records"`
	Offset  int                `json:"offset"`
	Records []*evidence.Record `json:"records"`
}

func (r *queryResult) WriteText(w io.Writer) error {
	if len(r.Records) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}
	fmt.Fprintf(w, "%-30s  %-10s  %-6s  %-24s  %-28s  %s\n", "TIME", "STATE", "STATUS", "API", "OPERATION", "ERROR")
	for _, rec := range r.Records {
		errText := rec.ErrorKind
		if len(rec.Caught) > 0 {
			errText = strings.TrimSpace(errText + " caught:" + strings.Join(rec.Caught, ","))
		}
		fmt.Fprintf(w, "%-30s  %-10s  %-6d  %-24s  %-28s  %s\n",
			rec.RecordedAt.Format(time.RFC3339Nano), rec.State, rec.StatusCode, rec.API, rec.Operation, errText)
	}
	_, err := fmt.Fprintf(w, "\nShowing %d-%d of %d records\n", r.Offset+1, r.Offset+len(r.Records), r.Total)
	return err
}

func exportEvidence(cmd *cobra.Command, args []string) error {
	exporter, err := export.New(evidenceFlags.format, true)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	evidenceFlags.limit = query.MaxLimit
	evidenceFlags.offset = 0
	evidenceFlags.sort = "asc"
	q, err := buildEvidenceQuery(time.Now())
	if err != nil {
		return err
	}
	ec, err := evidenceConfig()
	if err != nil {
		return err
	}
	store, err := openEvidenceStorage(ec, quietLogger())
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}
	defer store.Close()

	records, err := queryAll(commandContext(cmd), store, q)
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}

	out, closeOut, err := openOutput(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := exporter.Export(commandContext(cmd), records, out); err != nil {
		closeOut()
		return cli.NewCommandError("evidence", err)
	}
	return closeOut()
}

// queryAll pages through every record matching q.
func queryAll(ctx context.Context, store evidence.Storage, q *evidence.Query) ([]*evidence.Record, error) {
	var all []*evidence.Record
	for {
		page, err := store.Query(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}
		all = append(all, page...)
		if len(page) < q.Limit {
			return all, nil
		}
		q.Offset += len(page)
	}
}

func pruneEvidence(cmd *cobra.Command, args []string) error {
	ec, err := evidenceConfig()
	if err != nil {
		return err
	}
	logger := quietLogger()
	store, err := openEvidenceStorage(ec, logger)
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}
	defer store.Close()

	pruner := retention.NewPruner(store, retention.Config{
		RetentionDays: ec.Retention.Days,
		MaxRecords:    ec.Retention.MaxRecords,
		ArchivePath:   ec.Retention.ArchivePath,
	}, logger)
	deleted, err := pruner.Prune(commandContext(cmd))
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d records\n", deleted)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
