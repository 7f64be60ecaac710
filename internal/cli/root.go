// Package cli implements the articlectl admin commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"articlegen/internal/bootstrap"
	"articlegen/internal/domain"
	"articlegen/internal/infra"
)

// Admin is what the data commands need from a running deployment.
type Admin interface {
	Quota(ctx context.Context, userID string) (domain.QuotaSnapshot, error)
	Reconcile(ctx context.Context, articleID string) (domain.Article, error)
	SetProviderKey(ctx context.Context, key string) error
	DeleteProviderKey(ctx context.Context) error
}

// Options wires the commands to their backends. Zero fields use the real
// configuration and database.
type Options struct {
	OpenAdmin func(ctx context.Context) (Admin, func(), error)
}

// NewRootCommand creates the articlectl root command.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.OpenAdmin == nil {
		opts.OpenAdmin = openRuntimeAdmin
	}

	cmd := &cobra.Command{
		Use:           "articlectl",
		Short:         "Administer the article generation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newQuotaCommand(opts))
	cmd.AddCommand(newReconcileCommand(opts))
	cmd.AddCommand(newProviderKeyCommand(opts))
	cmd.AddCommand(newTokenCommand())

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

type runtimeAdmin struct {
	rt *bootstrap.Runtime
}

func openRuntimeAdmin(ctx context.Context) (Admin, func(), error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel).With().Str("cmd", "articlectl").Logger()
	rt, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return &runtimeAdmin{rt: rt}, rt.Close, nil
}

func (a *runtimeAdmin) Quota(ctx context.Context, userID string) (domain.QuotaSnapshot, error) {
	return a.rt.Service.Quota(ctx, userID)
}

func (a *runtimeAdmin) Reconcile(ctx context.Context, articleID string) (domain.Article, error) {
	art, err := a.rt.Articles.GetByID(ctx, articleID)
	if err != nil {
		return domain.Article{}, err
	}
	return a.rt.Service.Reconcile(ctx, *art)
}

func (a *runtimeAdmin) SetProviderKey(ctx context.Context, key string) error {
	return a.rt.Credentials.SetGenerationAPIKey(ctx, key)
}

func (a *runtimeAdmin) DeleteProviderKey(ctx context.Context) error {
	return a.rt.Credentials.DeleteGenerationAPIKey(ctx)
}
