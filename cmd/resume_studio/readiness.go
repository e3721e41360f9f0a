package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-studio/internal/observability"
	"github.com/jonathan/resume-studio/internal/readiness"
	"github.com/jonathan/resume-studio/internal/store/local"
)

var readinessDataDir string

var readinessCmd = &cobra.Command{
	Use:   "readiness [resume-id]",
	Short: "Evaluate the readiness checklist for a local resume",
	Long: `Run the readiness checks against a resume in the local store and print
the checklist. Without an argument, lists the local resumes instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReadiness,
}

func init() {
	readinessCmd.Flags().StringVar(&readinessDataDir, "data-dir", "", "Directory for the local document store")
	rootCmd.AddCommand(readinessCmd)
}

func runReadiness(_ *cobra.Command, args []string) error {
	st, err := local.NewStore(readinessDataDir)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	printer := observability.NewPrinter(os.Stdout)

	if len(args) == 0 {
		records, err := st.List(ctx, local.GuestUserID)
		if err != nil {
			return fmt.Errorf("failed to list resumes: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No resumes in the local store.")
			return nil
		}
		for _, rec := range records {
			fmt.Printf("%s  %s\n", rec.ID, rec.Title)
		}
		return nil
	}

	rec, err := st.Read(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	report := readiness.Evaluate(rec.Data)
	printer.PrintReadiness(report)
	return nil
}
