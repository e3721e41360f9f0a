package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-studio/internal/autosave"
	"github.com/jonathan/resume-studio/internal/config"
	"github.com/jonathan/resume-studio/internal/server"
)

var (
	servePort       int
	serveConfigPath string
	serveDataDir    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the HTTP server backing the resume editor.

With DATABASE_URL set the server uses PostgreSQL and requires JWT
authentication. Without it, resumes live in a local SQLite file under the
data directory and every request acts as the guest user.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a JSON config file")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "Directory for the local document store")
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (config.Config, error) {
	cfg := config.Config{}
	if serveConfigPath != "" {
		loaded, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		Port:        servePort,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DataDir:     serveDataDir,
		APIKey:      os.Getenv("GEMINI_API_KEY"),
	})

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	srv, err := server.New(context.Background(), server.Config{
		Port:        cfg.Port,
		DatabaseURL: cfg.DatabaseURL,
		DataDir:     cfg.DataDir,
		APIKey:      cfg.APIKey,
		Autosave: autosave.Config{
			Debounce:     cfg.AutosaveDebounce(),
			SavedDisplay: cfg.AutosaveSavedDisplay(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
