package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"articlegen/internal/article"
	"articlegen/internal/db"
	"articlegen/internal/middleware"
)

const commandTimeout = 30 * time.Second

func withAdmin(cmd *cobra.Command, opts Options, fn func(ctx context.Context, admin Admin) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	admin, closeFn, err := opts.OpenAdmin(ctx)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(ctx, admin)
}

func newMigrateCommand() *cobra.Command {
	var databaseURL string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(databaseURL)
			if url == "" {
				url = strings.TrimSpace(os.Getenv("DATABASE_URL"))
			}
			if url == "" {
				return errors.New("DATABASE_URL is required via --database-url or environment")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			conn, err := db.Open(url)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := db.RunMigrations(ctx, conn); err != nil {
				return err
			}
			version, err := db.Version(ctx, conn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL (defaults to DATABASE_URL)")
	return cmd
}

func newQuotaCommand(opts Options) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Print a user's current article quota",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, admin Admin) error {
				snap, err := admin.Quota(ctx, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), snap)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

type reconcileOutput struct {
	ID       string               `json:"id"`
	Status   string               `json:"status"`
	Progress article.ProgressView `json:"progress"`
}

func newReconcileCommand(opts Options) *cobra.Command {
	var articleID string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Query the provider for one article and store the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, admin Admin) error {
				a, err := admin.Reconcile(ctx, articleID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), reconcileOutput{
					ID:       a.ID,
					Status:   string(a.Status),
					Progress: article.Project(a),
				})
			})
		},
	}
	cmd.Flags().StringVar(&articleID, "id", "", "article id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newProviderKeyCommand(opts Options) *cobra.Command {
	var (
		key    string
		remove bool
	)
	cmd := &cobra.Command{
		Use:   "provider-key",
		Short: "Store or remove the generation provider API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key = strings.TrimSpace(key)
			if !remove && key == "" {
				key = strings.TrimSpace(os.Getenv("GENERATION_API_KEY"))
			}
			if !remove && key == "" {
				return errors.New("API key is required via --key or GENERATION_API_KEY")
			}
			return withAdmin(cmd, opts, func(ctx context.Context, admin Admin) error {
				if remove {
					if err := admin.DeleteProviderKey(ctx); err != nil {
						return fmt.Errorf("delete provider key: %w", err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), "generation API key removed")
					return nil
				}
				if err := admin.SetProviderKey(ctx, key); err != nil {
					return fmt.Errorf("persist provider key: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "generation API key stored successfully")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "API key (defaults to GENERATION_API_KEY)")
	cmd.Flags().BoolVar(&remove, "delete", false, "remove the stored key")
	return cmd
}

func newTokenCommand() *cobra.Command {
	var (
		userID string
		secret string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return errors.New("JWT secret is required via --secret or JWT_SECRET")
			}
			token, err := middleware.SignJWT(secret, userID, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to put in the subject claim")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (defaults to JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
