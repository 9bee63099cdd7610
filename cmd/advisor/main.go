package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yungbote/advisor-backend/internal/app"
	"github.com/yungbote/advisor-backend/internal/data/seed"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "advisor",
		Short:         "Study-abroad advisor backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd(), tokenCmd())
	return root
}

func serveCmd() *cobra.Command {
	var addr string
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, app.Options{Migrate: migrate})
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to :$PORT)")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "run AutoMigrate before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), app.Options{Migrate: true})
			if err != nil {
				return err
			}
			defer a.Close()
			a.Log.Info("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load universities and demo users from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.LoadFile(file)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), app.Options{Migrate: true})
			if err != nil {
				return err
			}
			defer a.Close()

			loader := seed.NewLoader(a.Log, a.Repos.Tx, a.Repos.Set)
			res, err := loader.Apply(dbctx.Context{Ctx: cmd.Context()}, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "universities: %d created, %d skipped\nusers: %d created, %d skipped\n",
				res.UniversitiesCreated, res.UniversitiesSkipped, res.UsersCreated, res.UsersSkipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "config/catalog.yaml", "seed file")
	return cmd
}

func tokenCmd() *cobra.Command {
	var userID string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			a, err := app.New(cmd.Context(), app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			tok, err := a.Services.Auth.MintToken(id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
