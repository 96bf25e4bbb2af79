package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file.csv>",
	Short: "Upload a CSV file to the analysis service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, closer, err := newLogger(false)
		if err != nil {
			return err
		}
		defer closer.Close()
		ctrl, err := newController(logger)
		if err != nil {
			return err
		}
		if err := ctrl.SelectFile(cmd.Context(), args[0]); err != nil {
			return err
		}
		s := ctrl.Snapshot()
		if s.UploadFailed {
			return errors.New(s.UploadStatus)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", s.UploadStatus)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
