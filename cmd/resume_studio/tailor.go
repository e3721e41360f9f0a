package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-studio/internal/fetch"
	"github.com/jonathan/resume-studio/internal/llm"
	"github.com/jonathan/resume-studio/internal/observability"
	"github.com/jonathan/resume-studio/internal/store/local"
	"github.com/jonathan/resume-studio/internal/tailor"
)

var (
	tailorDataDir string
	tailorJobFile string
	tailorJobURL  string
)

var tailorCmd = &cobra.Command{
	Use:   "tailor <resume-id>",
	Short: "Analyze a local resume against a job posting",
	Long: `Run a one-shot tailor analysis of a resume in the local store against a
job description read from a file or fetched from a posting URL, and print
the missing keywords and bullet suggestions.`,
	Args: cobra.ExactArgs(1),
	RunE: runTailor,
}

func init() {
	tailorCmd.Flags().StringVar(&tailorDataDir, "data-dir", "", "Directory for the local document store")
	tailorCmd.Flags().StringVar(&tailorJobFile, "job-file", "", "Path to a file containing the job description")
	tailorCmd.Flags().StringVar(&tailorJobURL, "job-url", "", "URL of the job posting")
	rootCmd.AddCommand(tailorCmd)
}

func runTailor(_ *cobra.Command, args []string) error {
	if (tailorJobFile == "") == (tailorJobURL == "") {
		return fmt.Errorf("exactly one of --job-file or --job-url is required")
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	ctx := context.Background()

	var jobText string
	if tailorJobFile != "" {
		data, err := os.ReadFile(tailorJobFile)
		if err != nil {
			return fmt.Errorf("failed to read job file: %w", err)
		}
		jobText = string(data)
	} else {
		text, err := fetch.JobText(ctx, tailorJobURL)
		if err != nil {
			return fmt.Errorf("failed to fetch job posting: %w", err)
		}
		jobText = text
	}
	if strings.TrimSpace(jobText) == "" {
		return fmt.Errorf("job description is empty")
	}

	st, err := local.NewStore(tailorDataDir)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	defer func() { _ = st.Close() }()

	rec, err := st.Read(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	results, err := tailor.NewAnalyzer(client).Analyze(ctx, jobText, rec.Data)
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintTailorResults(results)
	return nil
}
