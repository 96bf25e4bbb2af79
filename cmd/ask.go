package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/datasense-cli/internal/console"
	"github.com/KaramelBytes/datasense-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	askFile string
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the uploaded data",
	Long: `Ask sends one question to the analysis service and prints the answer with
its insights. With --file the CSV is uploaded first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return errors.New("question cannot be empty")
		}
		logger, closer, err := newLogger(false)
		if err != nil {
			return err
		}
		defer closer.Close()
		ctrl, err := newController(logger)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if askFile != "" {
			if err := ctrl.SelectFile(cmd.Context(), askFile); err != nil {
				return err
			}
			s := ctrl.Snapshot()
			if s.UploadFailed {
				return fmt.Errorf("upload: %s", s.UploadStatus)
			}
			if !askJSON {
				fmt.Fprintf(out, "✓ %s\n", s.UploadStatus)
			}
		}

		ctrl.SetDraft(question)
		if err := ctrl.Ask(cmd.Context(), question); err != nil {
			return err
		}
		s := ctrl.Snapshot()
		if askJSON {
			b, err := utils.PrettyJSON(s.LastResponse)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		printRecord(out, s.History[len(s.History)-1])
		return nil
	},
}

func printRecord(w io.Writer, rec console.Record) {
	fmt.Fprintf(w, "Q: %s\n", rec.Question)
	fmt.Fprintf(w, "A: %s\n", rec.Answer)
	for _, in := range rec.Insights {
		fmt.Fprintf(w, "  • %s\n", in)
	}
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "CSV file to upload before asking")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the decoded service response as JSON")
}
