package main

import (
	"os"

	"legalreview/core"
	"legalreview/internal/templates"
	"legalreview/models"
)

func main() {
	dir := "templates"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	cfg, err := core.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := core.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := core.InitDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatalw("failed to migrate database", "error", err)
	}

	files, err := templates.LoadDir(dir)
	if err != nil {
		logger.Fatalw("failed to load templates", "dir", dir, "error", err)
	}

	for _, f := range files {
		template, outcome, err := templates.Upsert(db, f)
		if err != nil {
			logger.Fatalw("failed to apply template", "name", f.Name, "error", err)
		}
		logger.Infow("template applied", "name", template.Name, "version", template.Version, "outcome", outcome)
	}

	logger.Infow("seeding complete", "templates", len(files))
}
