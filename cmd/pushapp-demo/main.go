// Command pushapp-demo is a terminal host for the engagement SDK. Each tab
// is a page that registers as the render surface while it is shown.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/ninjabase8085/pushapp"
	"github.com/ninjabase8085/pushapp/internal/app"
	"github.com/ninjabase8085/pushapp/internal/device"
	"github.com/ninjabase8085/pushapp/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, identifier, user, token string

	flags := pflag.NewFlagSet("pushapp-demo", pflag.ContinueOnError)
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&identifier, "identifier", "", `"tenant#channel" identifier (overrides config)`)
	flags.StringVar(&user, "user", "", "user id the l key logs in as")
	flags.StringVar(&token, "token", "", "push token to register the device with")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg, err := pushapp.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if identifier != "" {
		cfg.Identifier = identifier
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	bridge := app.NewBridge()
	logger := logging.New(
		logging.WithOutput(bridge),
		logging.WithLevel(level),
		logging.WithFormat(logging.FormatText),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := pushapp.Options{Logger: logger}
	if token != "" {
		opts.Tokens = device.StaticToken(token)
	}
	client, err := pushapp.Open(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Info("host", device.Describe(ctx)...)
	if err := client.Initialize(cfg.Identifier); err != nil {
		logger.Error("initialize failed", "err", err)
	}

	p := tea.NewProgram(app.New(client, bridge, user), tea.WithAltScreen())
	bridge.Pump(p.Send)
	defer bridge.Stop()

	_, err = p.Run()
	return err
}
