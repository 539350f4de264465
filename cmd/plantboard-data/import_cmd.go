package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/plantboard/plantboard/modules/dashboard/infrastructure/persistence"
	"github.com/plantboard/plantboard/modules/dashboard/services"
	"github.com/plantboard/plantboard/pkg/composables"
	"github.com/plantboard/plantboard/pkg/configuration"
	"github.com/plantboard/plantboard/pkg/csvimport"
	"github.com/plantboard/plantboard/pkg/eventbus"
)

type importOptions struct {
	kind csvimport.Kind
	file string
}

// importManifest is the one-line JSON record an import run leaves behind for
// scripted callers.
type importManifest struct {
	RunID            string   `json:"run_id"`
	Type             string   `json:"type"`
	Success          bool     `json:"success"`
	RecordsProcessed int      `json:"records_processed"`
	Errors           []string `json:"errors"`
}

func newImportCmd() *cobra.Command {
	var opts importOptions
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import dashboard records from a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&kindFlag, "type", "", "Record type: kpi or staff (required)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Path to the CSV file (required)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("file")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		kind, err := resolveKind(kindFlag)
		if err != nil {
			return withCode(exitUsage, err)
		}
		opts.kind = kind
		return nil
	}

	return cmd
}

func resolveKind(v string) (csvimport.Kind, error) {
	switch csvimport.Kind(strings.TrimSpace(v)) {
	case csvimport.KindKPI:
		return csvimport.KindKPI, nil
	case csvimport.KindStaff:
		return csvimport.KindStaff, nil
	default:
		return "", fmt.Errorf("invalid --type: %q (must be kpi or staff)", v)
	}
}

func runImport(ctx context.Context, opts importOptions) error {
	raw, err := os.ReadFile(opts.file)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("read %s: %w", opts.file, err))
	}

	pool, err := connectDB(ctx)
	if err != nil {
		return withCode(exitDB, err)
	}
	defer pool.Close()

	// Pool-backed context: rows commit one at a time, same as the upload
	// endpoint.
	ctx = composables.WithPool(ctx, pool)

	svc := services.NewCSVImportService(
		persistence.NewKPIRepository(),
		persistence.NewStaffRepository(),
		eventbus.NewEventPublisher(configuration.Use().Logger()),
	)
	result := svc.Import(ctx, opts.kind, string(raw))

	manifest := importManifest{
		RunID:            uuid.NewString(),
		Type:             string(opts.kind),
		Success:          result.Success,
		RecordsProcessed: result.RecordsProcessed,
		Errors:           result.Errors,
	}
	if err := writeJSONLine(manifest); err != nil {
		return err
	}
	if !result.Success {
		return withCode(exitValidation, fmt.Errorf("import finished with %d error(s)", len(result.Errors)))
	}
	return nil
}
