package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/claims/internal/config"
	"github.com/JonMunkholm/claims/internal/core"
	"github.com/JonMunkholm/claims/internal/logging"
	"github.com/JonMunkholm/claims/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app holds what the subcommands share. It is filled by setup before any
// subcommand runs and released by teardown.
type app struct {
	cfg        *config.Config
	service    *core.Service
	closeStore func()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               "importer",
		Short:             "Bulk load insurance claims from CSV",
		Long:              "Loads the claims CSV export into the store selected by STORE_DRIVER and DATABASE_URL.",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}
	root.AddCommand(newLoadCmd(a), newCountCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	// A missing .env is normal; the environment is used as-is.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format))

	store, closeStore, err := storage.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}

	service, err := core.NewService(store, cfg)
	if err != nil {
		closeStore()
		return err
	}

	a.cfg, a.service, a.closeStore = cfg, service, closeStore
	return nil
}

func (a *app) teardown(*cobra.Command, []string) {
	if a.closeStore != nil {
		a.closeStore()
	}
}

func newLoadCmd(a *app) *cobra.Command {
	var (
		clearFirst  bool
		batchSize   int
		conflictKey string
	)

	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Parse a claims CSV and upsert it in batches",
		Long: `Parses the whole file first; a malformed row aborts before anything is written.
Rows are then upserted in transactions of --batch-size rows. With the policy_id
conflict key every existing claim sharing a policy id is updated; with claim_id
only the claim with the same id is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.service.Import(cmd.Context(), core.ImportOptions{
				Path:          args[0],
				ClearExisting: clearFirst,
				BatchSize:     batchSize,
				ConflictKey:   core.ConflictKey(conflictKey),
			})
			if result != nil {
				out := cmd.OutOrStdout()
				if result.Cleared > 0 {
					fmt.Fprintf(out, "Cleared %d existing claims\n", result.Cleared)
				}
				fmt.Fprintf(out, "Imported %d of %d claims from %s in %d batches (%s)\n",
					result.Imported, result.Loaded, result.Source, result.Batches, result.Duration.Round(time.Millisecond))
			}
			if err != nil {
				return loadError(args[0], err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearFirst, "clear", false, "delete every claim before loading")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "rows per transaction (default IMPORT_BATCH_SIZE)")
	cmd.Flags().StringVar(&conflictKey, "conflict-key", "", "match existing rows on policy_id or claim_id (default IMPORT_CONFLICT_KEY)")
	return cmd
}

// loadError keeps the technical error and, when one exists, appends the
// support message users quote back.
func loadError(path string, err error) error {
	if !core.IsUserFacing(err) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return fmt.Errorf("load %s: %w\n%s", path, err, core.FormatUserError(err))
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored claims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.service.CountClaims(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d claims\n", n)
			return nil
		},
	}
}
