package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plantboard/plantboard/modules"
	"github.com/plantboard/plantboard/pkg/application"
	"github.com/plantboard/plantboard/pkg/configuration"
	"github.com/plantboard/plantboard/pkg/eventbus"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(newSchemaApplyCmd())
	return cmd
}

func newSchemaApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply the DDL registered by all modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaApply(cmd.Context())
		},
	}
}

func runSchemaApply(ctx context.Context) error {
	pool, err := connectDB(ctx)
	if err != nil {
		return withCode(exitDB, err)
	}
	defer pool.Close()

	conf := configuration.Use()
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(conf.Logger()),
		Logger:   conf.Logger(),
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		return withCode(exitDB, fmt.Errorf("load modules: %w", err))
	}
	if err := app.Schema().Apply(ctx); err != nil {
		return withCode(exitDB, err)
	}

	type schemaSummary struct {
		Status  string   `json:"status"`
		Applied []string `json:"applied"`
	}
	return writeJSONLine(schemaSummary{
		Status:  "applied",
		Applied: app.Schema().Registered(),
	})
}
