package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/datasense-cli/internal/stub"
	"github.com/spf13/cobra"
)

var stubAddr string

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run a local stub of the analysis service",
	Long: `Stub serves POST /upload and POST /query from memory so the console can be
tried without the real analysis backend.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, closer, err := newLogger(false)
		if err != nil {
			return err
		}
		defer closer.Close()

		addr := stubAddr
		if addr == "" {
			addr = ensureConfig().StubAddr
		}
		if addr == "" {
			addr = "127.0.0.1:8000"
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := stub.New(logger)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(addr) }()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Stub analysis service on http://%s (ctrl+c to stop)\n", addr)

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(stubCmd)
	stubCmd.Flags().StringVar(&stubAddr, "addr", "", "listen address (default from config stub_addr)")
}
