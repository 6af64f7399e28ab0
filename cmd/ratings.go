// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/parquet-go/parquet-go"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/literary-wheel/cliparse"
	"github.com/danielhkuo/literary-wheel/db"
	"github.com/danielhkuo/literary-wheel/ratings"
)

type dbFlags struct {
	dbType string
	url    string
}

func (f *dbFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dbType, "type", "t", "", "Database type (sqlite or postgres, env DATABASE_TYPE)")
	cmd.Flags().StringVarP(&f.url, "database", "d", "", "Database URL or sqlite path (env DATABASE_URL)")
}

func (f *dbFlags) open() (*sql.DB, error) {
	dbType, url, err := cliparse.ResolveDatabase(f.dbType, f.url)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(dbType, url)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func newClearRatingsCmd() *cobra.Command {
	var (
		flags dbFlags
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   "clear-ratings",
		Short: "Delete every rating",
		Long: `Deletes all ratings from every bucket. Buckets, cards and users are kept.
Pass --yes to confirm.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete ratings without --yes")
			}
			conn, err := flags.open()
			if err != nil {
				return err
			}
			defer conn.Close()

			n, err := clearRatings(cmd.Context(), conn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s ratings\n", humanize.Comma(n))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")

	return cmd
}

func clearRatings(ctx context.Context, conn *sql.DB) (int64, error) {
	n, err := ratings.NewSQLStore(conn).Clear(ctx)
	if err != nil {
		return 0, err
	}
	slog.Info("ratings cleared", "count", n)
	return n, nil
}

func newExportRatingsCmd() *cobra.Command {
	var (
		flags dbFlags
		out   string
	)

	cmd := &cobra.Command{
		Use:   "export-ratings",
		Short: "Write every rating to a parquet file",
		Example: `  literary-wheel export-ratings -d literary-wheel.db -o ratings.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := flags.open()
			if err != nil {
				return err
			}
			defer conn.Close()

			n, err := exportRatings(cmd.Context(), conn, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s ratings to %s\n", humanize.Comma(int64(n)), out)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "ratings.parquet", "Output file")

	return cmd
}

func exportRatings(ctx context.Context, conn *sql.DB, path string) (int, error) {
	rows, err := ratings.NewSQLStore(conn).All(ctx)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[ratings.ExportRow](f)
	if _, err := w.Write(rows); err != nil {
		return 0, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("close parquet writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close export file: %w", err)
	}

	slog.Info("ratings exported", "count", len(rows), "path", path)
	return len(rows), nil
}
