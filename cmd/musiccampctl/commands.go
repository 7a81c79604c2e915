package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/musiccamp/internal/auth"
	"github.com/geocoder89/musiccamp/internal/config"
	"github.com/geocoder89/musiccamp/internal/enrollment"
	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/geocoder89/musiccamp/internal/payments"
	"github.com/geocoder89/musiccamp/internal/store"
	"github.com/spf13/cobra"
)

// opener is swapped in tests.
var opener = store.Open

type env struct {
	cfg config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	var driver string

	root := &cobra.Command{
		Use:          "musiccampctl",
		Short:        "Operator commands for the Music Camp backend",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			e.cfg = config.Load()
			if driver != "" {
				e.cfg.StoreDriver = driver
			}
			e.log = observability.NewLogger(e.cfg.Env)
		},
	}

	root.PersistentFlags().StringVar(&driver, "store", "", "store driver override (mongo, postgres, memory)")

	root.AddCommand(newMigrateCmd(e), newSeedAdminCmd(e), newTokenCmd(e), newReconcileCmd(e))
	return root
}

func (e *env) open(ctx context.Context) (*store.Backend, error) {
	return opener(ctx, e.cfg, nil, e.log)
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables or indexes the selected store needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			b, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate %s: %w", b.Driver, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s store\n", b.Driver)
			return nil
		},
	}
}

func newSeedAdminCmd(e *env) *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the bootstrap admin or promote an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = e.cfg.AdminEmail
			}
			if name == "" {
				name = e.cfg.AdminName
			}
			if email == "" {
				return errors.New("--email or ADMIN_EMAIL is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			b, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			svc := enrollment.New(b.Stores, nil, enrollment.Config{Currency: e.cfg.PaymentCurrency}, e.log)

			u, err := svc.EnsureAdmin(ctx, email, name)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "admin %s (%s) ready\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email (default ADMIN_EMAIL)")
	cmd.Flags().StringVar(&name, "name", "", "admin display name (default ADMIN_NAME)")
	return cmd
}

// newTokenCmd issues the only tokens that carry a role claim. The API's
// /jwt-token never does, so enforced role guards admit only holders of a
// token minted here.
func newTokenCmd(e *env) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token carrying a stored user's role",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.cfg.Validate(); err != nil {
				return err
			}
			if email == "" {
				return errors.New("--email is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			b, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			svc := enrollment.New(b.Stores, nil, enrollment.Config{Currency: e.cfg.PaymentCurrency}, e.log)

			u, found, err := svc.FindUser(ctx, email)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no user with email %q", email)
			}

			token, err := auth.NewManager(e.cfg.JWTSecret, e.cfg.JWTTTL()).GenerateAccessToken(u.ID, u.Email, string(u.Role))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email of the stored user")
	return cmd
}

func newReconcileCmd(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Clear the cart entries of payments whose cleanup did not finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			b, err := e.open(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			svc := enrollment.New(b.Stores, payments.NewStripeProcessor(e.cfg.PaymentSecretKey), enrollment.Config{
				Currency: e.cfg.PaymentCurrency,
			}, e.log)

			n, err := svc.ReconcilePayments(ctx, limit)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "reconciled %d payments\n", n)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum payments to reconcile")
	return cmd
}
