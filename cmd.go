package main

import (
	"fmt"

	"echobot/config"
	"echobot/internal/controller"
	"echobot/internal/source"
	"echobot/logger"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type rootFlags struct {
	configPath string
	mode       string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:          "echobot",
		Short:        "Telegram bot built on a middleware pipeline",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := flags.load()
			if err != nil {
				return err
			}
			fx.New(appOptions(conf)).Run()
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default $CONFIG_PATH or "+config.DefaultPath+")")
	cmd.PersistentFlags().StringVar(&flags.mode, "mode", "", "update source: polling or webhook (overrides bot.mode)")

	cmd.AddCommand(newWebhookCmd(flags))
	return cmd
}

func (f *rootFlags) load() (*config.Config, error) {
	if f.configPath != "" {
		return config.Load(f.configPath, config.WithMode(f.mode))
	}
	return config.NewConfig(config.WithMode(f.mode))
}

func newWebhookCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Inspect or remove the bot's webhook",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the webhook Telegram has on record",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := flags.connect()
			if err != nil {
				return err
			}
			info, err := client.GetWebhookInfo()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "url: %s\n", info.URL)
			fmt.Fprintf(out, "pending updates: %d\n", info.PendingUpdateCount)
			if info.LastErrorMessage != "" {
				fmt.Fprintf(out, "last error: %s\n", info.LastErrorMessage)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook so the bot can poll",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, log, err := flags.connect()
			if err != nil {
				return err
			}
			if err := source.DisableWebhook(client, log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "webhook removed")
			return nil
		},
	})

	return cmd
}

func (f *rootFlags) connect() (controller.BotClient, *zap.Logger, error) {
	conf, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewLogger(conf)
	if err != nil {
		return nil, nil, err
	}
	client, err := controller.NewBotAPI(conf, log)
	if err != nil {
		return nil, nil, err
	}
	return client, log, nil
}
