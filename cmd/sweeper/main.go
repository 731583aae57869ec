package main

import (
	"context"
	"flag"
	"log"
	"time"

	"kt-assistant-be/internal/config"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/memory"
	"kt-assistant-be/internal/repository/unitofwork"
	"kt-assistant-be/internal/service"
	"kt-assistant-be/pkg/database"

	"github.com/fatih/color"
)

// The sweeper runs either as a one-shot purge (default, cron friendly) or as a
// resident loop with -loop.
func main() {
	loop := flag.Bool("loop", false, "keep running and sweep on the configured interval")
	flag.Parse()

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	sweeper := service.NewSweeperService(uowFactory, memory.NewSessionLockRepository(), cfg.KT.SessionTTL, sysLogger)

	runOnce(sweeper)

	if !*loop {
		return
	}

	ticker := time.NewTicker(cfg.KT.SweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		runOnce(sweeper)
	}
}

func runOnce(sweeper service.ISweeperService) {
	report, err := sweeper.Sweep(context.Background(), time.Now())
	if err != nil {
		color.Red("Sweep failed: %v", err)
		return
	}

	color.Cyan("Sweep finished at %s", time.Now().Format(time.RFC3339))
	color.White("  sessions examined: %d", report.ExaminedSessions)
	if report.PurgedSessions > 0 {
		color.Yellow("  sessions purged:   %d", report.PurgedSessions)
	} else {
		color.White("  sessions purged:   0")
	}
	if report.OrphanVectorsFound > 0 {
		color.Red("  orphan vectors:    %d found, %d purged", report.OrphanVectorsFound, report.OrphanVectorsPurged)
	} else {
		color.Green("  orphan vectors:    none")
	}
}
