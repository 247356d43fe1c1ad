package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/migrations"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции схемы БД",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer log.Close()

			db, err := openDatabase(cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := migrations.Up(cmd.Context(), db, cfg.Database.Dialect(), log)
			if err != nil {
				return err
			}

			log.Info("Migrations finished: applied=%d", applied)
			return nil
		},
	}
}

func checkConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Проверить config.toml и выйти",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			defaults, err := cfg.CalendarDefaults()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (hours %s-%s, capacity=%d, services=%d, default duration=%dm)\n",
				path, defaults.OpenTime, defaults.CloseTime, defaults.Capacity,
				len(cfg.Catalog.Services), cfg.Catalog.DefaultDurationMinutes)
			return nil
		},
	}
}
