// Command example is a small blog built on mvc: posts, comments and
// users over MySQL or SQLite, with translated views.
//
//	DATABASE_DRIVER=sqlite3 DATABASE_DSN=file:blog.db go run ./example migrate
//	DATABASE_DRIVER=sqlite3 DATABASE_DSN=file:blog.db go run ./example serve
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mvc"
	"github.com/dmitrymomot/mvc/middlewares"
	"github.com/dmitrymomot/mvc/pkg/db"
	"github.com/dmitrymomot/mvc/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "example",
		Short:        "Blog demo for the mvc framework",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newRoutesCmd())
	return root
}

// setup loads the configuration and builds the logger.
func setup() (Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.Log, middlewares.RequestIDExtractor())
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			pool, conn, err := openDB(ctx, cfg, log)
			if err != nil {
				return err
			}
			if migrate {
				if err := db.Migrate(ctx, pool, cfg.DB.Driver, migrationsFor(cfg.DB.Driver), cfg.DB.MigrationsTable, log); err != nil {
					return errors.Join(err, pool.Close())
				}
			}

			app, err := newApp(ctx, cfg, log, pool, conn)
			if err != nil {
				return errors.Join(err, pool.Close())
			}
			return app.Run(cfg.Address, mvc.ShutdownTimeout(cfg.ShutdownTimeout), mvc.WithContext(ctx))
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			pool, err := db.Open(cmd.Context(), cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()
			return db.Migrate(cmd.Context(), pool, cfg.DB.Driver, migrationsFor(cfg.DB.Driver), cfg.DB.MigrationsTable, log)
		},
	}
}

// newRoutesCmd prints the route table without touching the database.
func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := mvc.New(mvc.WithRoutes(drawRoutes))
			if err != nil {
				return err
			}
			return printRoutes(cmd.OutOrStdout(), app.Router())
		},
	}
}

func printRoutes(w io.Writer, r *mvc.Router) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHODS\tPATTERN\tDESTINATION")
	for _, rt := range r.Routes() {
		pattern := rt.Pattern()
		if rt.Name() != "" {
			pattern = fmt.Sprintf("%s (%s)", pattern, rt.Name())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", strings.Join(rt.Methods(), ","), pattern, rt.Destination())
	}
	return tw.Flush()
}
