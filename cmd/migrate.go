package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sharath018/event-gift-backend/config"
	"github.com/sharath018/event-gift-backend/database"
	"github.com/sharath018/event-gift-backend/internal/auth"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := database.Migrate(db, models()...); err != nil {
				return err
			}
			log.Info().Msg("database migrations completed")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var name, username, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account if the username is free",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := database.Migrate(db, models()...); err != nil {
				return err
			}
			created, err := ensureAdmin(cmd.Context(), cfg, db, name, username, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %q created\n", username)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %q already exists\n", username)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	cmd.Flags().StringVar(&username, "username", "", "Login username")
	cmd.Flags().StringVar(&password, "password", "", "Login password")
	return cmd
}

func ensureAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB, name, username, password string) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	// Admin creation never issues tokens, so sessions can stay in memory.
	svc := auth.NewService(auth.NewRepository(db), auth.NewMemorySessionStore(), cfg)
	created, err := svc.EnsureAdmin(ctx, name, username, password)
	if err != nil {
		return false, fmt.Errorf("ensure admin %q: %w", username, err)
	}
	if created {
		log.Info().Str("username", username).Msg("admin account created")
	}
	return created, nil
}
