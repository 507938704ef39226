package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/medref/medref/internal/config"
	"github.com/medref/medref/internal/domain/calculator"
	"github.com/medref/medref/internal/domain/catalog"
	"github.com/medref/medref/internal/platform/db"
	"github.com/medref/medref/internal/platform/export"
	"github.com/medref/medref/internal/platform/mcpserver"
	"github.com/medref/medref/migrations"
)

// cliApp loads configuration and the corpus for a one-shot command. Logs
// go to stderr so stdout carries only the command's JSON.
func cliApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg, newLogger(cfg, cmd.ErrOrStderr()))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the corpus and report every skipped record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cliApp(cmd)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), a.report); err != nil {
				return err
			}
			for kind, kr := range a.report.Kinds {
				if kr.Error != "" {
					return fmt.Errorf("%s: %s", kind, kr.Error)
				}
			}
			if n := a.report.SkippedCount(); n > 0 {
				return fmt.Errorf("%d record(s) skipped", n)
			}
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search across the reference corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cliApp(cmd)
			if err != nil {
				return err
			}
			rawKinds, _ := cmd.Flags().GetStringSlice("kind")
			limit, _ := cmd.Flags().GetInt("limit")

			var kinds []catalog.Kind
			for _, k := range rawKinds {
				kind, err := catalog.ParseKind(k)
				if err != nil {
					return err
				}
				kinds = append(kinds, kind)
			}
			results, err := a.catalog.Search(cmd.Context(), args[0], kinds...)
			if err != nil {
				return err
			}
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringSlice("kind", nil, "Restrict to medication, guideline or criteria (repeatable)")
	cmd.Flags().Int("limit", 20, "Maximum results; 0 for all")
	return cmd
}

func interactionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactions <drug> <drug>...",
		Short: "List declared interactions among the named drugs",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cliApp(cmd)
			if err != nil {
				return err
			}
			results, err := a.catalog.CheckInteractions(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}
}

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <instrument> <response>...",
		Short: "Score a rating-scale instrument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cliApp(cmd)
			if err != nil {
				return err
			}
			responses := make([]float64, 0, len(args)-1)
			for i, raw := range args[1:] {
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return fmt.Errorf("item %d: %q is not a number", i+1, raw)
				}
				responses = append(responses, v)
			}
			result, err := a.calc.Score(args[0], responses)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func bmiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bmi",
		Short: "Compute body mass index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, _ := cmd.Flags().GetFloat64("weight")
			height, _ := cmd.Flags().GetFloat64("height")
			units, _ := cmd.Flags().GetString("units")
			result, err := calculator.CalculateBMI(calculator.BMIInput{
				Weight: weight,
				Height: height,
				Units:  calculator.Units(units),
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().Float64("weight", 0, "Weight in kg (metric) or lb (imperial)")
	cmd.Flags().Float64("height", 0, "Height in cm (metric) or in (imperial)")
	cmd.Flags().String("units", string(calculator.UnitsMetric), "metric or imperial")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "export <medications|guidelines|criteria>",
		Short:     "Write a filtered collection to an xlsx workbook",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"medications", "guidelines", "criteria"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cliApp(cmd)
			if err != nil {
				return err
			}
			kind, err := catalog.ParseKind(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			q, _ := flags.GetString("q")
			ctx := cmd.Context()

			var tables []export.Table
			switch kind {
			case catalog.KindMedication:
				classes, _ := flags.GetStringSlice("class")
				quick, _ := flags.GetStringSlice("flag")
				indications, _ := flags.GetStringSlice("indication")
				meds, err := a.catalog.SearchMedications(ctx, q, catalog.MedicationFilter{
					Classes:     toEnum[catalog.DrugClass](classes),
					Flags:       toEnum[catalog.QuickFlag](quick),
					Indications: indications,
				})
				if err != nil {
					return err
				}
				tables = catalog.MedicationTables(meds)
			case catalog.KindGuideline:
				orgs, _ := flags.GetStringSlice("organization")
				conditions, _ := flags.GetStringSlice("condition")
				guidelines, err := a.catalog.SearchGuidelines(ctx, q, catalog.GuidelineFilter{
					Organizations: orgs,
					Conditions:    conditions,
				})
				if err != nil {
					return err
				}
				tables = catalog.GuidelineTables(guidelines)
			case catalog.KindCriteria:
				categories, _ := flags.GetStringSlice("category")
				criteria, err := a.catalog.SearchCriteria(ctx, q, catalog.CriteriaFilter{
					Categories: toEnum[catalog.Category](categories),
				})
				if err != nil {
					return err
				}
				tables = catalog.CriteriaTables(criteria)
			}

			data, err := export.Workbook(tables...)
			if err != nil {
				return err
			}
			out, _ := flags.GetString("out")
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().String("q", "", "Search query")
	cmd.Flags().StringSlice("class", nil, "Medication drug class filter")
	cmd.Flags().StringSlice("flag", nil, "Medication quick flag filter")
	cmd.Flags().StringSlice("indication", nil, "Medication indication filter")
	cmd.Flags().StringSlice("organization", nil, "Guideline organization filter")
	cmd.Flags().StringSlice("condition", nil, "Guideline condition filter")
	cmd.Flags().StringSlice("category", nil, "Criteria category filter")
	cmd.Flags().StringP("out", "o", "", "Output file; stdout when empty")
	return cmd
}

func toEnum[T ~string](values []string) []T {
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = T(v)
	}
	return out
}

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the reference tools over the Model Context Protocol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cliApp(cmd)
			if err != nil {
				return err
			}
			srv := mcpserver.New(a.catalog, a.calc, version, a.logger)

			addr, _ := cmd.Flags().GetString("http")
			if addr == "" {
				return srv.Run(cmd.Context(), &mcp.StdioTransport{})
			}
			return serveMCPHTTP(cmd.Context(), addr, mcpserver.HTTPHandler(srv), a)
		},
	}
	cmd.Flags().String("http", "", "Listen address for streamable HTTP instead of stdio")
	return cmd
}

func serveMCPHTTP(ctx context.Context, addr string, h http.Handler, a *app) error {
	httpSrv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", addr).Msg("serving MCP over HTTP")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL user-state schema",
	}
	cmd.PersistentFlags().String("schema", "", "Target schema (default public)")
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeFn, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			n, err := m.Up(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{"applied": n})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeFn, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			status, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	})
	return cmd
}

func openMigrator(cmd *cobra.Command) (*db.Migrator, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required for %s migrations", config.BackendPostgres)
	}
	pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	schema, _ := cmd.Flags().GetString("schema")
	return db.NewMigrator(pool, migrations.FS, schema), pool.Close, nil
}
