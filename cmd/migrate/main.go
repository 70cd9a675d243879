package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/surprisebag-backend/pkg/config"
	"github.com/angelmondragon/surprisebag-backend/pkg/db"
	"github.com/angelmondragon/surprisebag-backend/pkg/logger"
	"github.com/angelmondragon/surprisebag-backend/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

// offline commands work on the migrations directory only.
var offline = map[string]func(opts options) error{
	"create": func(opts options) error {
		if opts.name == "" {
			return fmt.Errorf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(opts options) error {
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	},
}

var online = map[string]func(ctx context.Context, runner *migrate.Runner, opts options) error{
	"up": func(ctx context.Context, runner *migrate.Runner, _ options) error {
		results, err := runner.Up(ctx)
		printResults(results)
		return err
	},
	"down": func(ctx context.Context, runner *migrate.Runner, _ options) error {
		result, err := runner.Down(ctx)
		if result != nil {
			printResults([]*goose.MigrationResult{result})
		}
		return err
	},
	"status": func(ctx context.Context, runner *migrate.Runner, _ options) error {
		statuses, err := runner.Status(ctx)
		for _, st := range statuses {
			applied := "pending"
			if st.State == goose.StateApplied {
				applied = st.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%-20s %-14d %s\n", applied, st.Source.Version, st.Source.Path)
		}
		return err
	},
	"version": func(ctx context.Context, runner *migrate.Runner, opts options) error {
		if opts.version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		results, err := runner.ToVersion(ctx, opts.version)
		printResults(results)
		return err
	},
}

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: "+commandList())
	opts := options{}
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	cfg, err := config.Load()
	exitOn(context.Background(), logg, "load config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    *cmd,
		"dir":    opts.dir,
		"driver": cfg.DB.Driver,
	})

	if run, ok := offline[*cmd]; ok {
		exitOn(ctx, logg, *cmd, run(opts))
		return
	}
	run, ok := online[*cmd]
	if !ok {
		exitOn(ctx, logg, "parse flags", fmt.Errorf("unknown -cmd %q (want %s)", *cmd, commandList()))
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn(ctx, logg, "connect database", err)
	defer dbClient.Close()

	if cfg.DB.Driver == config.DriverSQLite {
		// The SQL files are Postgres-only; sqlite schemas come from the models.
		if *cmd != "up" {
			exitOn(ctx, logg, *cmd, fmt.Errorf("sqlite databases only support -cmd=up"))
		}
		exitOn(ctx, logg, "auto-migrate", migrate.AutoMigrateModels(dbClient.DB()))
		logg.Info(ctx, "sqlite schema migrated")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	exitOn(ctx, logg, "sql database", err)
	runner, err := migrate.NewRunner(sqlDB, opts.dir)
	exitOn(ctx, logg, "goose provider", err)

	exitOn(ctx, logg, *cmd, run(ctx, runner, opts))
	logg.Info(ctx, "migrate finished")
}

func printResults(results []*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		fmt.Printf("%-4s %-14d %-8s %s\n", res.Direction, res.Source.Version, res.Duration.Round(1e6), res.Source.Path)
	}
}

func commandList() string {
	names := make([]string, 0, len(offline)+len(online))
	for name := range offline {
		names = append(names, name)
	}
	for name := range online {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func exitOn(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("migrate %s failed", step), err)
	os.Exit(1)
}
