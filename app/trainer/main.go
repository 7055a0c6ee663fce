package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"myGroupBuy/app/bootstrap"
	"myGroupBuy/domain"
	"myGroupBuy/pkg/config"
	"myGroupBuy/pkg/database"
	"myGroupBuy/pkg/logger"
	"myGroupBuy/pkg/utils"

	"github.com/spf13/cobra"
)

// set with -ldflags "-X main.buildVersion=..."
var buildVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "trainer",
	Short: "Offline training and maintenance for the group-buy recommender.",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Train a new model artifact and activate it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoad()
		loop, _ := cmd.Flags().GetBool("loop")
		interval, _ := cmd.Flags().GetDuration("interval")
		if interval > 0 {
			loop = true
		} else {
			interval = cfg.Recommendation.TrainInterval
		}

		deps, err := bootstrap.Build(cfg)
		if err != nil {
			return err
		}
		defer deps.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		train := func() error {
			meta, err := deps.Recommendation.Train(ctx)
			if err != nil {
				return err
			}
			logger.Info("training finished", "version", meta.Version, "model_type", meta.ModelType)
			return nil
		}

		if !loop {
			return train()
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if err := train(); err != nil {
				// keep serving the previous artifact and try again next tick
				logger.Error("training failed", "error", err)
			}
			select {
			case <-ctx.Done():
				logger.Info("trainer stopped")
				return nil
			case <-ticker.C:
			}
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoad()
		db, err := database.InitPostgres(cfg)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		logger.Info("migration finished")
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue a signed API token for a user.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoad()
		userID, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", args[0], err)
		}
		role, _ := cmd.Flags().GetString("role")
		token, err := utils.GenerateJWT(uint(userID), role, cfg.JWT.SecretKey, cfg.JWT.TTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(buildVersion)
	},
}

func mustLoad() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.App.Environment)
	return cfg
}

func init() {
	runCmd.Flags().Bool("loop", false, "keep training every RECO_TRAIN_INTERVAL")
	runCmd.Flags().Duration("interval", 0, "keep training on this interval")
	tokenCmd.Flags().String("role", domain.RoleCustomer, "role claim of the token")

	rootCmd.AddCommand(runCmd, migrateCmd, tokenCmd, versionCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("failed to execute: %v", err)
	}
}
