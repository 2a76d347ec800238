package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dotlist/internal/config"
	"dotlist/internal/logging"
	"dotlist/internal/storage"
	"dotlist/internal/tasklist"
	"dotlist/internal/ui"
)

var Version = "dev"

type flags struct {
	configPath string
	dataDir    string
	backend    string
	logFile    string
	verbose    bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "dotlist",
		Short:         "Keyboard-driven task list for the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
	}
	cmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "Config file (default $DOTLIST_CONFIG or the user config dir)")
	cmd.PersistentFlags().StringVar(&f.dataDir, "data-dir", "", "Directory holding the task file")
	cmd.PersistentFlags().StringVar(&f.backend, "backend", "", "Storage backend (json, sqlite)")
	cmd.PersistentFlags().StringVar(&f.logFile, "log-file", "", "Append JSON logs to this file")
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Log at debug level")

	cmd.AddCommand(pathsCmd(&f))
	return cmd
}

func pathsCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the config and data locations in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, cfg, err := loadConfig(*f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:  %s\n", cfgPath)
			fmt.Fprintf(out, "data:    %s\n", cfg.DataDir)
			fmt.Fprintf(out, "backend: %s\n", cfg.Backend)
			if cfg.LogFile != "" {
				fmt.Fprintf(out, "log:     %s\n", cfg.LogFile)
			}
			return nil
		},
	}
}

func loadConfig(f flags) (string, config.Config, error) {
	path := f.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return path, cfg, fmt.Errorf("load config: %w", err)
	}
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	if f.backend != "" {
		cfg.Backend = f.backend
	}
	if f.logFile != "" {
		cfg.LogFile = f.logFile
	}
	return path, cfg, nil
}

func run(f flags) error {
	_, cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(cfg.LogFile, f.verbose)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logCloser.Close()

	backend, err := storage.Open(cfg.Backend, cfg.DataDir, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer backend.Close()

	opts := []tasklist.Option{
		tasklist.WithLogger(logger),
		tasklist.WithFilter(tasklist.Filter{
			ShowCompleted: cfg.Filter.ShowCompleted,
			HideFuture:    cfg.Filter.HideFuture,
			DottedOnly:    cfg.Filter.DottedOnly,
		}),
	}
	uiOpts := ui.Options{Logger: logger}

	store, err := tasklist.Load(backend, opts...)
	var loadErr *tasklist.LoadError
	var writeErr *tasklist.WriteError
	switch {
	case errors.As(err, &loadErr):
		if loadErr.Missing() {
			logger.Info("no saved tasks", "dir", cfg.DataDir)
		} else {
			logger.Error("load failed", "err", loadErr.Err)
		}
		store = tasklist.New(backend, opts...)
		uiOpts.LoadErr = loadErr
	case errors.As(err, &writeErr):
		uiOpts.WriteFailed = true
	case err != nil:
		return err
	}

	if err := ui.Run(store, cfg, uiOpts); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
