package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikolayk812/storefront/internal/app"
	"github.com/nikolayk812/storefront/internal/config"
	"github.com/nikolayk812/storefront/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	err := newRootCmd(c).ExecuteContext(ctx)
	if closeErr := c.close(); closeErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", closeErr)
		err = closeErr
	}
	if err != nil {
		stop()
		os.Exit(1)
	}
}

type cli struct {
	configFile string
	userID     string

	log *zap.Logger
	app *app.App
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:          "storefront",
		Short:        "Shopping cart, checkout and order history",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&c.userID, "user", "guest", "shopper id used to stamp and list orders")

	root.AddCommand(
		newCartCmd(c),
		newCheckoutCmd(c),
		newOrdersCmd(c),
	)

	return root
}

func (c *cli) open(ctx context.Context) error {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("logging.New: %w", err)
	}
	c.log = log

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("app.New: %w", err)
	}
	c.app = a

	return nil
}

func (c *cli) close() error {
	var err error
	if c.app != nil {
		err = c.app.Close()
		c.app = nil
	}
	if c.log != nil {
		_ = c.log.Sync()
	}
	return err
}
