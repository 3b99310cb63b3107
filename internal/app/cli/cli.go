// Package cli is the operator command line: migrations, seeding, token minting and
// the batch engine runs that are usually scheduled rather than clicked.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"schoolops/internal/app/server"
	"schoolops/internal/auth"
	"schoolops/internal/domain/ids"
	"schoolops/internal/domain/invoicing"
	"schoolops/internal/domain/payroll"
	"schoolops/internal/domain/results"
	"schoolops/internal/platform/config"
	"schoolops/internal/platform/db"
	"schoolops/internal/platform/docstore"
	"schoolops/internal/platform/logging"
	"schoolops/internal/platform/seed"
)

// OpenFunc opens the document store; tests swap it for an in-memory store.
type OpenFunc func(ctx context.Context, cfg config.Config) (docstore.Gateway, func(context.Context) error, error)

type runner struct {
	cfg   config.Config
	open  OpenFunc
	actor string
}

func NewRootCommand(cfg config.Config, open OpenFunc) *cobra.Command {
	if open == nil {
		open = server.OpenStore
	}
	r := &runner{cfg: cfg, open: open}

	root := &cobra.Command{
		Use:           "schoolctl",
		Short:         "Operate the school ledger and result engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.Setup(r.cfg.LogLevel, r.cfg.LogFormat)
		},
	}
	root.PersistentFlags().StringVar(&r.cfg.StoreDriver, "store", cfg.StoreDriver, "document store driver (memory, postgres, mongo)")
	root.PersistentFlags().StringVar(&r.actor, "actor", cfg.SeedAdminID, "user id the operation runs as")

	root.AddCommand(r.migrateCommand(), r.seedCommand(), r.tokenCommand(),
		r.invoicesCommand(), r.payrollCommand(), r.resultsCommand())
	return root
}

func (r *runner) withStore(ctx context.Context, fn func(store docstore.Gateway) error) error {
	store, closeStore, err := r.open(ctx, r.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore(ctx) }()
	return fn(store)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *runner) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the postgres document store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if r.cfg.StoreDriver != config.DriverPostgres {
				return errors.New("migrate only applies to the postgres store")
			}
			pool, err := db.Connect(cmd.Context(), r.cfg)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()
			if err := db.Migrate(cmd.Context(), pool, r.cfg.MigrationsDir); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return err
		},
	}
}

func (r *runner) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the admin user, core subjects and default grading scale",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withStore(cmd.Context(), func(store docstore.Gateway) error {
				if err := seed.Run(cmd.Context(), store, seed.Options{AdminID: r.actor, AdminName: r.cfg.SeedAdminName}); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "seed complete")
				return err
			})
		},
	}
}

func (r *runner) tokenCommand() *cobra.Command {
	var role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for --actor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := auth.GenerateToken(r.cfg.JWTSecret, auth.Claims{UserID: r.actor, Role: role}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&role, "role", "admin", "role claim carried by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}

type periodFlags struct {
	class, session, term string
}

func (p *periodFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.class, "class", "", "class identifier")
	cmd.Flags().StringVar(&p.session, "session", "", "academic session, e.g. 2024-2025")
	cmd.Flags().StringVar(&p.term, "term", "", "term name")
	for _, name := range []string{"class", "session", "term"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func (r *runner) invoicesCommand() *cobra.Command {
	var p periodFlags
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate term invoices for every active student in a class",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withStore(cmd.Context(), func(store docstore.Gateway) error {
				res, err := invoicing.NewService(store, r.cfg.InvoiceDueDays).GenerateInvoices(cmd.Context(),
					invoicing.GenerateInput{ClassIdentifier: p.class, Session: p.session, Term: p.term}, ids.UserID(r.actor))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	p.bind(generate)
	group := &cobra.Command{Use: "invoices", Short: "Invoice operations"}
	group.AddCommand(generate)
	return group
}

func (r *runner) payrollCommand() *cobra.Command {
	var month, year int
	run := &cobra.Command{
		Use:   "run",
		Short: "Execute the monthly payroll run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withStore(cmd.Context(), func(store docstore.Gateway) error {
				res, err := payroll.NewService(store).RunPayroll(cmd.Context(), payroll.RunInput{Month: month, Year: year}, ids.UserID(r.actor))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	now := time.Now()
	run.Flags().IntVar(&month, "month", int(now.Month()), "month 1-12")
	run.Flags().IntVar(&year, "year", now.Year(), "four digit year")
	group := &cobra.Command{Use: "payroll", Short: "Payroll operations"}
	group.AddCommand(run)
	return group
}

func (r *runner) resultsCommand() *cobra.Command {
	var p periodFlags
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Compute report cards and class ranks for a class",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withStore(cmd.Context(), func(store docstore.Gateway) error {
				res, err := results.NewService(store).GenerateResults(cmd.Context(),
					results.GenerateInput{ClassIdentifier: p.class, Session: p.session, Term: p.term}, ids.UserID(r.actor))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	p.bind(generate)
	group := &cobra.Command{Use: "results", Short: "Result operations"}
	group.AddCommand(generate)
	return group
}
