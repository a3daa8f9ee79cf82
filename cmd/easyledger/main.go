package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/easyledger/internal/client"
	"github.com/xxxsen/easyledger/internal/config"
	"github.com/xxxsen/easyledger/internal/db"
	"github.com/xxxsen/easyledger/internal/job"
	"github.com/xxxsen/easyledger/internal/schedule"
)

func main() {
	var configPath string
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "easyledger",
		Short: "easyledger otp backend",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "optional .env file loaded before the config")

	load := func() (*config.Config, error) {
		if configPath == "" {
			return nil, fmt.Errorf("--config is required")
		}
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logger.Init(
			cfg.LogConfig.File,
			cfg.LogConfig.Level,
			int(cfg.LogConfig.FileCount),
			int(cfg.LogConfig.FileSize),
			int(cfg.LogConfig.KeepDays),
			cfg.LogConfig.Console,
		)
		logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
		return cfg, nil
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run otp server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Store != config.StorePostgres {
				return fmt.Errorf("migrate requires the postgres store")
			}
			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer conn.Close()
			return db.ApplyMigrations(cmd.Context(), conn)
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "delete expired otp records once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			cleanup := job.NewOtpCleanupJob(store, time.Duration(cfg.Cleanup.RetentionHours)*time.Hour)
			logger := logutil.GetLogger(cmd.Context()).With(zap.String("job", cleanup.Name()))
			return schedule.RunOnce(cmd.Context(), cleanup, logger)
		},
	}

	rootCmd.AddCommand(runCmd, migrateCmd, cleanupCmd, newSendCmd(), newVerifyCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func newSendCmd() *cobra.Command {
	var server, email string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "request a code from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.New(server, nil).Send(cmd.Context(), email)
			if err != nil {
				return err
			}
			return printResponse(resp)
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://127.0.0.1:8080", "server base url")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var server, email, code string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "submit a code to a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.New(server, nil).Verify(cmd.Context(), email, code)
			if err != nil {
				return err
			}
			return printResponse(resp)
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://127.0.0.1:8080", "server base url")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&code, "code", "", "code received by mail")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func printResponse(resp *client.Response) error {
	if resp.OK {
		fmt.Fprintln(os.Stdout, "ok")
		return nil
	}
	return fmt.Errorf("rejected: %s", resp.Message)
}
