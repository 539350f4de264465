package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/plantboard/plantboard/modules/dashboard/services"
)

type exportOptions struct {
	kind       string
	format     services.ExportFormat
	out        string
	from       time.Time
	to         time.Time
	department string
}

func newExportCmd() *cobra.Command {
	var opts exportOptions
	var kindFlag, formatFlag, fromFlag, toFlag string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export dashboard records to a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&kindFlag, "type", "", "Record type: kpi or staff (required)")
	cmd.Flags().StringVar(&formatFlag, "format", "xlsx", "Output format: xlsx or csv")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output file or directory (default: generated name in the working directory)")
	cmd.Flags().StringVar(&fromFlag, "from", "", "Only export KPI weeks on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toFlag, "to", "", "Only export KPI weeks on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.department, "department", "", "Only export staff from this department")
	_ = cmd.MarkFlagRequired("type")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		kind := strings.TrimSpace(kindFlag)
		if kind != "kpi" && kind != "staff" {
			return withCode(exitUsage, fmt.Errorf("invalid --type: %q (must be kpi or staff)", kindFlag))
		}
		opts.kind = kind

		format := services.ExportFormat(strings.TrimSpace(formatFlag))
		if !format.IsValid() {
			return withCode(exitUsage, fmt.Errorf("invalid --format: %q (must be xlsx or csv)", formatFlag))
		}
		opts.format = format

		var err error
		if opts.from, err = parseDateFlag(fromFlag); err != nil {
			return withCode(exitUsage, fmt.Errorf("invalid --from: %w", err))
		}
		if opts.to, err = parseDateFlag(toFlag); err != nil {
			return withCode(exitUsage, fmt.Errorf("invalid --to: %w", err))
		}
		return nil
	}

	return cmd
}

func parseDateFlag(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, v)
}

func runExport(ctx context.Context, opts exportOptions) error {
	pool, err := connectDB(ctx)
	if err != nil {
		return withCode(exitDB, err)
	}
	defer pool.Close()

	svc := services.NewExcelExportService(pool)

	var (
		data     []byte
		filename string
	)
	switch opts.kind {
	case "kpi":
		data, filename, err = svc.ExportKPIData(ctx, opts.format, opts.from, opts.to)
	default:
		data, filename, err = svc.ExportStaff(ctx, opts.format, opts.department)
	}
	if err != nil {
		return withCode(exitDB, fmt.Errorf("export %s: %w", opts.kind, err))
	}

	path, err := resolveOutputPath(opts.out, filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return withCode(exitDB, fmt.Errorf("write %s: %w", path, err))
	}

	type exportSummary struct {
		Status string `json:"status"`
		Type   string `json:"type"`
		File   string `json:"file"`
		Bytes  int    `json:"bytes"`
	}
	return writeJSONLine(exportSummary{
		Status: "exported",
		Type:   opts.kind,
		File:   path,
		Bytes:  len(data),
	})
}

// resolveOutputPath treats out as a directory when it already is one or ends
// with a path separator, otherwise as the target file.
func resolveOutputPath(out, filename string) (string, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return filename, nil
	}
	if strings.HasSuffix(out, string(os.PathSeparator)) {
		if err := os.MkdirAll(out, 0o755); err != nil {
			return "", withCode(exitDB, fmt.Errorf("mkdir %s: %w", out, err))
		}
		return filepath.Join(out, filename), nil
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, filename), nil
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", withCode(exitDB, fmt.Errorf("mkdir %s: %w", dir, err))
		}
	}
	return out, nil
}
