package cmd

import (
	"github.com/KaramelBytes/datasense-cli/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var consoleFile string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive analysis console",
	Long: `Console opens a two-pane terminal UI: choose a CSV file on the left
(ctrl+o), ask questions on the right and scroll through the answers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, closer, err := newLogger(true)
		if err != nil {
			return err
		}
		defer closer.Close()
		ctrl, err := newController(logger)
		if err != nil {
			return err
		}
		logger.Info("console started", zap.String("service_url", ensureConfig().ServiceURL))
		return ui.Run(cmd.Context(), ctrl, consoleFile)
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().StringVarP(&consoleFile, "file", "f", "", "CSV file to upload on start")
}
