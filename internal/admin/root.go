// Package admin implements cookbookctl, the operator command line for
// schema migrations and account provisioning.
package admin

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/cookbook/internal/server/config"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
	"github.com/dmitrijs2005/cookbook/internal/server/services"
)

// Backend is the server side the commands act on.
type Backend interface {
	MigrateUp(ctx context.Context) error
	MigrateDown(ctx context.Context) error
	AddUser(ctx context.Context, reg services.Registration) (*models.User, error)
	Close() error
}

// Connector opens a Backend for the loaded configuration.
type Connector func(ctx context.Context, cfg *config.Config) (Backend, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DSN        string
}

func NewRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "cookbookctl",
		Short:         "Cookbook server administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "server config file (JSON or YAML)")
	cmd.PersistentFlags().StringVarP(&opts.DSN, "dsn", "d", "", "database DSN, overrides config and environment")

	cmd.AddCommand(NewMigrateCommand(opts, connect))
	cmd.AddCommand(NewUserAddCommand(opts, connect))

	return cmd
}

// open loads the server configuration and connects to its database.
func (o *RootOptions) open(ctx context.Context, connect Connector) (Backend, error) {
	cfg, err := config.LoadWithoutFlags(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if o.DSN != "" {
		cfg.DatabaseDSN = o.DSN
	}
	return connect(ctx, cfg)
}
