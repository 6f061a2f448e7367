package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/peterhaasme/time-portfolio/internal/app/presenter"
	"github.com/peterhaasme/time-portfolio/internal/app/provider"
	"github.com/peterhaasme/time-portfolio/internal/app/validator"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
	"github.com/peterhaasme/time-portfolio/internal/infrastructure/configloader"
	"github.com/peterhaasme/time-portfolio/internal/pkg/logger"
)

var (
	configPath string
	envFile    string
	walletFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "checker",
		Short:         "Track TIME, MEMO and wMEMO holdings of an Avalanche wallet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (overrides CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file with secrets")

	watchCmd := &cobra.Command{
		Use:   "watch [address]",
		Short: "Show the portfolio and refresh it; each stdin line replaces the address",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWatch,
	}
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print one portfolio per address in a wallet list",
		Args:  cobra.NoArgs,
		RunE:  runReport,
	}
	reportCmd.Flags().StringVar(&walletFile, "wallets", "", "Wallet list (defaults to files.walletsFile)")
	validateCmd := &cobra.Command{
		Use:   "validate ADDRESS",
		Short: "Check an address without touching the network",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}
	rootCmd.AddCommand(watchCmd, reportCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*provider.Runtime, func(), error) {
	if configPath != "" {
		if err := os.Setenv("CONFIG_PATH", configPath); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := configloader.LoadAll(envFile)
	if err != nil {
		return nil, nil, err
	}

	// Логи в stderr, stdout остаётся под вывод портфеля.
	zapLogger, err := logger.NewZap(cfg.Logging.Level, "console", "stderr")
	if err != nil {
		return nil, nil, err
	}
	slogLogger := logger.InitSlog(zapLogger)

	rt, err := provider.NewRuntime(ctx, cfg, zapLogger, slogLogger)
	if err != nil {
		return nil, nil, err
	}
	return rt, func() {
		rt.Close()
		_ = zapLogger.Sync()
	}, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	v := validator.New()
	address := args[0]
	if err := v.Validate(address); err != nil {
		return err
	}
	normalized, _ := v.Normalize(address)
	fmt.Fprintf(cmd.OutOrStdout(), "valid: %s\n", normalized)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	driver := rt.NewDriver(NewTextRenderer(out))
	if len(args) == 1 {
		driver.SetAddress(args[0])
	}

	go readAddresses(cmd.InOrStdin(), driver.SetAddress)

	if err := driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// readAddresses forwards each input line, trimmed, until EOF.
func readAddresses(r io.Reader, set func(string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		set(strings.TrimSpace(scanner.Text()))
	}
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	wallets, err := rt.Wallets(walletFile)
	if err != nil {
		return err
	}
	if len(wallets) == 0 {
		slog.Warn("No wallets to report", "path", walletFile)
		return nil
	}

	renderer := NewTextRenderer(cmd.OutOrStdout())
	var partial int
	for _, w := range wallets {
		snapshot, err := rt.Portfolio.ComputeSnapshot(ctx, w.Address, rt.Tokens)
		if err != nil {
			if !errors.Is(err, entity.ErrPartialResult) {
				return err
			}
			partial++
			rt.Logger.Warn("Portfolio incomplete", "wallet", w.Address, "error", err)
		}
		renderer.Render(presenter.Build(snapshot))
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if partial > 0 {
		return fmt.Errorf("%d of %d wallet(s) have unavailable values", partial, len(wallets))
	}
	return nil
}
