package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"torres_backend/internal/appErrors"
	"torres_backend/internal/services"
	"torres_backend/internal/services/dto"
	"torres_backend/internal/workers"

	"github.com/spf13/cobra"
)

// Execute runs one manage command and returns the process exit code.
func Execute(ctx context.Context, rt *Runtime, args []string) int {
	root := newRootCommand(rt)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		var uErr *usageError
		if appErrors.As(err, &uErr) {
			fmt.Fprintf(rt.Err, "❌ %s\n", uErr.msg)
			fmt.Fprintln(rt.Err, "Run 'manage --help' for usage.")
		}
	}
	return ExitCode(err)
}

func newRootCommand(rt *Runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "manage",
		Short:         "🔧 Torres Project - management commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Без аргументов печатаем справку и выходим без ошибки
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("Unknown command: %s", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(rt.In)
	root.SetOut(rt.Out)
	root.SetErr(rt.Err)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageErrorf("%s: %v", cmd.Name(), err)
	})

	root.AddCommand(
		newMigrateCommand(rt),
		newCreateAdminCommand(rt),
		newResetDBCommand(rt),
		newSeedDataCommand(rt),
		newSeedSelicCommand(rt),
		newCleanupLogsCommand(rt),
		newStatsCommand(rt),
		newIssueTokenCommand(rt),
		newExpirePlansCommand(rt),
		newWorkerCommand(rt),
	)
	return root
}

// exactArgs reports a wrong argument count as a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageErrorf("Usage: %s", cmd.Use)
		}
		return nil
	}
}

// fail prints the failure line and passes the error through for the exit code.
func fail(rt *Runtime, prefix string, err error) error {
	fmt.Fprintf(rt.Err, "❌ %s: %s\n", prefix, describe(err))
	return err
}

func newMigrateCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withServices(cmd.Context(), func(svc *services.ServiceContainer) error {
				if err := svc.AdminService.Migrate(cmd.Context()); err != nil {
					return fail(rt, "Error creating tables", err)
				}
				fmt.Fprintln(rt.Out, "✅ Tables are up to date")
				return nil
			})
		},
	}
}

func newCreateAdminCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "create-admin <email> <password>",
		Short: "Create an administrator with 1000 credits and the Enterprise plan",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, password := args[0], args[1]
			return rt.withServices(cmd.Context(), func(svc *services.ServiceContainer) error {
				res, err := svc.AdminService.CreateAdmin(cmd.Context(), email, password)
				if err != nil {
					if appErrors.Is(err, appErrors.ErrEmailAlreadyExists) {
						fmt.Fprintf(rt.Err, "❌ User %s already exists!\n", email)
						return err
					}
					return fail(rt, "Error creating admin", err)
				}
				fmt.Fprintf(rt.Out, "✅ Admin user created: %s\n", res.Email)
				fmt.Fprintf(rt.Out, "🎯 Credits: %d\n", res.Credits)
				fmt.Fprintf(rt.Out, "📋 Plan: %s\n", res.Plan.Title())
				return nil
			})
		},
	}
}

func newResetDBCommand(rt *Runtime) *cobra.Command {
	var confirm string

	cmd := &cobra.Command{
		Use:   "reset-db",
		Short: "Drop and recreate the whole schema (destroys all data)",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			answer := confirm
			if !cmd.Flags().Changed("confirm") {
				var err error
				if answer, err = promptConfirmation(rt.In, rt.Out); err != nil {
					return fail(rt, "Error reading confirmation", err)
				}
			}
			if answer != services.ResetConfirmation {
				fmt.Fprintln(rt.Out, "❌ Operation cancelled")
				return appErrors.ErrConfirmationDeclined
			}

			return rt.withServices(cmd.Context(), func(svc *services.ServiceContainer) error {
				if err := svc.AdminService.ResetDB(cmd.Context(), answer); err != nil {
					return fail(rt, "Error resetting database", err)
				}
				fmt.Fprintln(rt.Out, "✅ Database reset successfully!")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&confirm, "confirm", "", "confirmation text, must be exactly "+services.ResetConfirmation)
	return cmd
}

// promptConfirmation reads one line from the operator. Only the line ending is
// stripped; the answer must match exactly.
func promptConfirmation(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprintln(out, "⚠️  WARNING: this will DELETE all data!")
	fmt.Fprintf(out, "Type '%s' to continue: ", services.ResetConfirmation)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newSeedDataCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-data",
		Short: "Populate the database with sample users and calculations",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withServices(cmd.Context(), func(svc *services.ServiceContainer) error {
				res, err := svc.AdminService.SeedData(cmd.Context())
				if err != nil {
					return fail(rt, "Error creating sample data", err)
				}
				for _, created := range res.Created {
					fmt.Fprintf(rt.Out, "👤 %s: %d calculations\n", created.Email, created.HistoryCreated)
				}
				for _, email := range res.Skipped {
					fmt.Fprintf(rt.Out, "⏭  %s already exists, skipped\n", email)
				}
				fmt.Fprintln(rt.Out, "✅ Sample data created successfully!")
				return nil
			})
		},
	}
}

func newSeedSelicCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-selic <filepath>",
		Short: "Load monthly SELIC rates from a BCB export",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			fmt.Fprintf(rt.Out, "Loading SELIC data from file: %s\n", path)

			f, err := os.Open(path)
			if err != nil {
				fmt.Fprintf(rt.Err, "❌ Error: file not found at '%s'\n", path)
				return err
			}
			defer f.Close()

			return rt.withServices(cmd.Context(), func(svc *services.ServiceContainer) error {
				res, err := svc.AdminService.SeedSelic(cmd.Context(), f)
				if err != nil {
					return fail(rt, "Error loading SELIC data", err)
				}
				if res.Skipped > 0 {
					fmt.Fprintf(rt.Out, "⚠️  %d malformed lines skipped\n", res.Skipped)
				}
				if res.Imported == 0 {
					fmt.Fprintln(rt.Out, "No SELIC rates found to insert.")
					return nil
				}
				fmt.Fprintf(rt.Out, "✅ %d SELIC rates inserted successfully!\n", res.Imported)
				return nil
			})
		},
	}
}

func newCleanupLogsCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-logs",
		Short: "Delete audit records older than one year",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withServices(cmd.Context(), func(svc *services.ServiceContainer) error {
				res, err := svc.AdminService.CleanupLogs(cmd.Context())
				if err != nil {
					return fail(rt, "Error cleaning up logs", err)
				}
				fmt.Fprintf(rt.Out, "✅ %d old logs removed\n", res.Removed)
				return nil
			})
		},
	}
}

func newStatsCommand(rt *Runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show system statistics",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withServices(cmd.Context(), func(svc *services.ServiceContainer) error {
				report, err := svc.AdminService.Stats(cmd.Context())
				if err != nil {
					return fail(rt, "Error fetching statistics", err)
				}
				if asJSON {
					enc := json.NewEncoder(rt.Out)
					enc.SetIndent("", "  ")
					return enc.Encode(report)
				}
				printStats(rt.Out, report)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printStats(w io.Writer, report *dto.StatsReport) {
	fmt.Fprintln(w, "📊 SYSTEM STATISTICS")
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintf(w, "👥 Total users: %d\n", report.TotalUsers)
	fmt.Fprintf(w, "🧮 Total calculations: %d\n", report.TotalCalculations)
	fmt.Fprintf(w, "⏱  Average calculation time: %.1f ms\n", report.AvgCalculationTimeMs)

	fmt.Fprintln(w, "\n📋 Users by plan:")
	for _, pc := range report.UsersByPlan {
		fmt.Fprintf(w, "   %s: %d\n", pc.Plan.Title(), pc.Users)
	}

	fmt.Fprintf(w, "\n📈 Calculations today: %d\n", report.CalculationsToday)
}

func newIssueTokenCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "issue-token <email>",
		Short: "Print a signed access token for an existing user",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withServices(cmd.Context(), func(svc *services.ServiceContainer) error {
				res, err := svc.AdminService.IssueToken(cmd.Context(), args[0])
				if err != nil {
					return fail(rt, "Error issuing token", err)
				}
				fmt.Fprintln(rt.Out, res.AccessToken)
				fmt.Fprintf(rt.Err, "Expires at %s\n", res.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
				return nil
			})
		},
	}
}

func newExpirePlansCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "expire-plans",
		Short: "Move users whose plan has expired back to the Free plan",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withServices(cmd.Context(), func(svc *services.ServiceContainer) error {
				res, err := svc.AdminService.ExpirePlans(cmd.Context())
				if err != nil {
					return fail(rt, "Error expiring plans", err)
				}
				fmt.Fprintf(rt.Out, "✅ %d expired plans moved to Free\n", res.Expired)
				return nil
			})
		},
	}
}

func newWorkerCommand(rt *Runtime) *cobra.Command {
	var cleanupInterval, expireInterval time.Duration

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run periodic maintenance (audit cleanup, plan expiry) until interrupted",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withServices(cmd.Context(), func(svc *services.ServiceContainer) error {
				fmt.Fprintln(rt.Out, "🔁 Maintenance worker started, press Ctrl+C to stop")
				w := workers.NewMaintenanceWorker(svc.AdminService, cleanupInterval, expireInterval)
				if err := w.Run(cmd.Context()); err != nil {
					return fail(rt, "Maintenance worker failed", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&cleanupInterval, "cleanup-interval", workers.DefaultCleanupInterval, "how often old audit logs are removed")
	cmd.Flags().DurationVar(&expireInterval, "expire-interval", workers.DefaultExpireInterval, "how often expired plans are checked")
	return cmd
}
