package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/db"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

var errUsage = errors.New("usage")

func main() {
	_ = godotenv.Load()

	opts := options{}
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "source migrations directory for create and validate")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "pos-migrate %s: %v\n", opts.cmd, err)
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return fmt.Errorf("%w: -name is required", errUsage)
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "created", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Fprintln(out, "migrations ok")
		return nil
	case "up", "down", "status", "version":
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, opts.cmd)
	}
	if opts.cmd == "version" && opts.version == "" {
		return fmt.Errorf("%w: -version is required", errUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "pos-migrate",
		TerminalID:  cfg.App.TerminalID,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	driver := cfg.Storage.NormalizedDriver()
	ctx = logg.WithFields(ctx, map[string]any{"cmd": opts.cmd, "driver": driver})
	if driver == config.StorageDriverRedis {
		logg.Warn(ctx, "migrate.skipped_redis")
		return nil
	}

	client, err := db.New(ctx, driver, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("state store: %w", err)
	}
	defer client.Close()

	sqlDB, err := client.SQLDB()
	if err != nil {
		return err
	}

	if opts.cmd == "version" {
		err = migrate.MigrateToVersion(ctx, sqlDB, client.Dialect(), opts.version)
	} else {
		err = migrate.Run(ctx, sqlDB, client.Dialect(), opts.cmd)
	}
	if err != nil {
		return err
	}
	logg.Info(ctx, "migrate.done")
	return nil
}
