package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nutrilog/internal/config"
	"github.com/nutrilog/internal/db"
	"github.com/nutrilog/internal/service"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cliApp is the ledger opened against the configured database.
type cliApp struct {
	cfg    config.AppConfig
	gdb    *gorm.DB
	ledger *service.Ledger
}

func (a *cliApp) Close() {
	if sqlDB, err := a.gdb.DB(); err == nil {
		sqlDB.Close()
	}
}

// newApp reads the config and opens the ledger. The caller must defer app.Close().
func newApp(cmd *cobra.Command) (*cliApp, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if strings.TrimSpace(configPath) == "" {
		configPath = os.Getenv("NUTRILOG_CONFIG")
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := db.Init(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	ledger := service.NewLedger(service.GormRepositories(db.DB), service.LedgerOptions{
		Location:         loc,
		JWTSecret:        cfg.JWTSecret,
		TokenTTL:         cfg.TokenTTL,
		RecentFoodsLimit: cfg.RecentFoodsLimit,
	})

	return &cliApp{cfg: cfg, gdb: db.DB, ledger: ledger}, nil
}

// userID resolves --user (or the bootstrap account) to its UID.
func (a *cliApp) userID(ctx context.Context, cmd *cobra.Command) (string, error) {
	username, _ := cmd.Flags().GetString("user")
	if strings.TrimSpace(username) == "" {
		username = a.cfg.BootstrapUserName
	}
	if strings.TrimSpace(username) == "" {
		return "", fmt.Errorf("no user selected: pass --user or set BOOTSTRAP_USER_NAME")
	}

	user, err := a.ledger.Auth.FindUser(ctx, username)
	if err != nil {
		return "", err
	}
	return user.UID, nil
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "nutrilog",
		Short:        "Personal nutrition ledger",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().StringP("user", "u", "", "Username whose ledger to use")

	// user command
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	userAddCmd := &cobra.Command{
		Use:   "add USERNAME",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.ledger.Auth.Register(cmd.Context(), args[0], password)
			if err != nil {
				return fmt.Errorf("creating user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Username, user.UID)
			return nil
		},
	}
	userAddCmd.Flags().StringP("password", "p", "", "Password for the new account")
	userAddCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userAddCmd)

	// add command
	addCmd := &cobra.Command{
		Use:   "add FOOD",
		Short: "Record an entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			servings, _ := cmd.Flags().GetFloat64("servings")
			kcal, _ := cmd.Flags().GetFloat64("kcal")
			protein, _ := cmd.Flags().GetFloat64("protein")
			date, _ := cmd.Flags().GetString("date")

			food := strings.TrimSpace(strings.Join(args, " "))
			if food == "" {
				return fmt.Errorf("food name is required")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			uid, err := a.userID(ctx, cmd)
			if err != nil {
				return err
			}
			if date == "" || date == "today" {
				date = a.ledger.Window.Today()
			}

			result, err := a.ledger.Entries.AddEntry(ctx, uid, service.EntryInput{
				Date:       date,
				Food:       food,
				Servings:   servings,
				KcalPer:    kcal,
				ProteinPer: protein,
			})
			if err != nil {
				return fmt.Errorf("adding entry: %w", err)
			}

			out := cmd.OutOrStdout()
			entry := result.Entry
			fmt.Fprintf(out, "Added %s  %s  %.4g x %s  %s kcal  %s g protein\n",
				entry.ID, entry.Date, entry.Servings, entry.Food,
				formatAmount(entry.KcalTotal), formatAmount(entry.ProteinTotal))
			if result.CatalogErr != nil {
				fmt.Fprintf(out, "warning: food list not updated: %v\n", result.CatalogErr)
			}
			return nil
		},
	}
	addCmd.Flags().Float64P("servings", "s", 1, "Number of servings")
	addCmd.Flags().Float64("kcal", 0, "Energy per serving (kcal)")
	addCmd.Flags().Float64("protein", 0, "Protein per serving (g)")
	addCmd.Flags().StringP("date", "d", "", "Day key YYYY-MM-DD (default today)")

	// day command
	dayCmd := &cobra.Command{
		Use:   "day [DATE]",
		Short: "Show a day's entries and progress",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			uid, err := a.userID(ctx, cmd)
			if err != nil {
				return err
			}

			date := a.ledger.Window.Today()
			if len(args) > 0 && args[0] != "today" {
				date = args[0]
			}

			summary, err := a.ledger.Entries.DaySummary(ctx, uid, date)
			if err != nil {
				return err
			}
			printDay(cmd.OutOrStdout(), a.ledger.Window.DisplayFormat(date), summary)
			return nil
		},
	}

	// history command
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent days grouped by date",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			uid, err := a.userID(ctx, cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = a.cfg.HistoryDays
			}

			history, err := a.ledger.Entries.History(ctx, uid, days)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(history.Days) == 0 {
				fmt.Fprintf(out, "No entries between %s and %s.\n", history.Start, history.End)
				return nil
			}
			for _, day := range history.Days {
				fmt.Fprintf(out, "%-14s  %3d entries  %8s kcal  %7s g protein\n",
					a.ledger.Window.DisplayFormat(day.Date), len(day.Entries),
					formatAmount(day.Totals.Kcal), formatAmount(day.Totals.Protein))
			}
			fmt.Fprintf(out, "Total           %8s kcal  %7s g protein\n",
				formatAmount(history.Totals.Kcal), formatAmount(history.Totals.Protein))
			return nil
		},
	}
	historyCmd.Flags().IntP("days", "n", service.DefaultHistoryDays, "Number of days to show")

	// foods command
	foodsCmd := &cobra.Command{
		Use:   "foods",
		Short: "List recently used foods",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			uid, err := a.userID(ctx, cmd)
			if err != nil {
				return err
			}

			foods, err := a.ledger.Foods.Recent(ctx, uid, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(foods) == 0 {
				fmt.Fprintln(out, "No foods recorded yet.")
				return nil
			}
			for _, food := range foods {
				fmt.Fprintf(out, "%-24s  %8s kcal  %7s g protein  last used %s\n",
					food.Name, formatAmount(food.KcalPer), formatAmount(food.ProteinPer),
					food.LastUsedAt.In(a.ledger.Window.Location()).Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	foodsCmd.Flags().IntP("limit", "n", 0, "Maximum number of foods (default from config)")

	// goal command
	goalCmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage daily targets",
	}
	goalShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show daily targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			uid, err := a.userID(ctx, cmd)
			if err != nil {
				return err
			}

			goal, err := a.ledger.Goals.Get(ctx, uid)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Energy:  %s kcal\nProtein: %s g\n",
				formatAmount(goal.KcalTarget), formatAmount(goal.ProteinTarget))
			return nil
		},
	}
	goalSetCmd := &cobra.Command{
		Use:   "set",
		Short: "Update daily targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch service.GoalPatch
			if cmd.Flags().Changed("kcal") {
				v, _ := cmd.Flags().GetFloat64("kcal")
				patch.KcalTarget = &v
			}
			if cmd.Flags().Changed("protein") {
				v, _ := cmd.Flags().GetFloat64("protein")
				patch.ProteinTarget = &v
			}
			if patch.KcalTarget == nil && patch.ProteinTarget == nil {
				return fmt.Errorf("pass --kcal and/or --protein")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			uid, err := a.userID(ctx, cmd)
			if err != nil {
				return err
			}

			goal, err := a.ledger.Goals.Save(ctx, uid, patch)
			if err != nil {
				return fmt.Errorf("saving goal: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Energy:  %s kcal\nProtein: %s g\n",
				formatAmount(goal.KcalTarget), formatAmount(goal.ProteinTarget))
			return nil
		},
	}
	goalSetCmd.Flags().Float64("kcal", 0, "Daily energy target (kcal)")
	goalSetCmd.Flags().Float64("protein", 0, "Daily protein target (g)")
	goalCmd.AddCommand(goalShowCmd)
	goalCmd.AddCommand(goalSetCmd)

	// rm command
	rmCmd := &cobra.Command{
		Use:   "rm ENTRY_ID",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			uid, err := a.userID(ctx, cmd)
			if err != nil {
				return err
			}

			if err := a.ledger.Entries.DeleteEntry(ctx, uid, args[0]); err != nil {
				return fmt.Errorf("deleting entry: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(foodsCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(rmCmd)
	return rootCmd
}

func printDay(out io.Writer, title string, summary *service.DaySummary) {
	fmt.Fprintf(out, "%s\n", title)
	if len(summary.Entries) == 0 {
		fmt.Fprintln(out, "  No entries.")
	}
	for _, entry := range summary.Entries {
		fmt.Fprintf(out, "  %s  %-24s  %.4g x  %8s kcal  %7s g protein\n",
			entry.ID, entry.Food, entry.Servings,
			formatAmount(entry.KcalTotal), formatAmount(entry.ProteinTotal))
	}
	fmt.Fprintf(out, "Energy:  %s / %s kcal (%.0f%%)\n",
		formatAmount(summary.Totals.Kcal), formatAmount(summary.Goal.KcalTarget), summary.Progress.Kcal.Percent*100)
	fmt.Fprintf(out, "Protein: %s / %s g (%.0f%%)\n",
		formatAmount(summary.Totals.Protein), formatAmount(summary.Goal.ProteinTarget), summary.Progress.Protein.Percent*100)
}

// formatAmount rounds for display only; stored totals stay unrounded.
func formatAmount(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}
