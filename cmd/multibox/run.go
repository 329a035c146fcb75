package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ttacon/chalk"

	"multibox/app"
)

func runCmd() *cobra.Command {
	var (
		noConsole bool
		noHotkeys bool
		logFile   string
		debug     bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Attach to every client and start the coordinator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, table, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			var logOut io.Writer = os.Stderr
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

			a, err := app.New(cfg, table, app.Options{Logger: log})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Println(chalk.Green.Color(fmt.Sprintf("[OK] watching %s (%d offsets, permission %s)", cfg.ProcessName, len(table.Names()), cfg.Permission)))

			var loops []func(context.Context) error
			if !noHotkeys {
				hotkeys, err := a.HotkeyLoop()
				if err != nil {
					return err
				}
				loops = append(loops, hotkeys)
			}
			if !noConsole {
				console, err := app.NewConsole(a, cfg.Console, os.Stdout)
				if err != nil {
					return err
				}
				loops = append(loops, console.Run)
			}
			return a.Run(ctx, loops...)
		},
	}
	cmd.Flags().BoolVar(&noConsole, "no-console", false, "run without the keyboard controller")
	cmd.Flags().BoolVar(&noHotkeys, "no-hotkeys", false, "do not register global hotkeys")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logs")
	return cmd
}
