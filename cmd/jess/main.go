package main

import (
	"fmt"
	"os"

	"github.com/alexanderramin/jess/internal/cli"
	"github.com/alexanderramin/jess/internal/composer"
	"github.com/alexanderramin/jess/internal/config"
	"github.com/alexanderramin/jess/internal/db"
	"github.com/alexanderramin/jess/internal/httpapi"
	"github.com/alexanderramin/jess/internal/llm"
	"github.com/alexanderramin/jess/internal/logging"
	"github.com/alexanderramin/jess/internal/repository"
	"github.com/alexanderramin/jess/internal/service"
	"github.com/alexanderramin/jess/internal/session"
	"github.com/alexanderramin/jess/internal/workflow"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	interactive := func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	// Interactive commands keep the console quiet; the file log has
	// everything.
	logOpts := logging.Options{File: cfg.App.LogFile, Production: cfg.App.IsProduction()}
	if !interactive() || cfg.App.IsProduction() {
		logOpts.Console = logging.Stderr()
	}
	logger, closeLog := logging.New(logOpts)
	defer closeLog()

	database, err := db.OpenDB(cfg.App.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	var observer llm.Observer = llm.NoopObserver{}
	if cfg.LLM.LogCalls {
		observer = llm.NewLogObserver(logger)
	}
	gen, err := llm.NewClient(cfg.LLM, observer)
	if err != nil {
		return fmt.Errorf("configuring %s client: %w", cfg.LLM.Provider, err)
	}

	records := repository.NewSQLiteCaseRecordRepo(database)
	stages := workflow.DefaultStages()
	newEngine := func() *workflow.Engine {
		return workflow.NewEngine(stages, records, gen, workflow.WithLogger(logger))
	}

	chat := composer.New(gen,
		composer.WithComposition(cfg.App.Composition),
		composer.WithLogger(logger))
	reports := service.NewReportService(records,
		db.NewSQLiteUnitOfWork(database), service.SQLiteTxRepo,
		newEngine, service.NewLogUseCaseObserver(logger))

	app := &cli.App{
		Composer:      chat,
		Reports:       reports,
		NewEngine:     newEngine,
		HTTPAddr:      cfg.App.HTTPAddr,
		DefaultMode:   cfg.App.ResponseMode,
		Logger:        logger,
		IsInteractive: interactive,
	}
	app.NewServer = func() *httpapi.Server {
		sessions := session.NewManager(cfg.App.SessionTTL, cfg.App.SessionTTL/4, newEngine)
		sessions.SetDefaultMode(cfg.App.ResponseMode)
		return httpapi.New(httpapi.Deps{
			Sessions: sessions,
			Composer: chat,
			Reports:  reports,
			Logger:   logger,
		})
	}

	logger.Debug("starting",
		zap.String("provider", string(cfg.LLM.Provider)),
		zap.String("model", cfg.LLM.Model),
		zap.String("db", cfg.App.DBPath))

	return cli.NewRootCmd(app).Execute()
}
