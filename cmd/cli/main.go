// Command cli is an operator tool for opening accounts and posting to the
// ledger directly against the database, bypassing the HTTP layer.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/amirasaad/bankledger/infra"
	"github.com/amirasaad/bankledger/infra/migrations"
	infra_repository "github.com/amirasaad/bankledger/infra/repository"
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/ledger"
	"github.com/fatih/color"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		return
	}
	if err := run(context.Background(), os.Args[1:]); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "❌", err) //nolint:errcheck
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	db, err := infra.NewDBConnection(cfg.DB, "cli")
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close() //nolint:errcheck
	if cfg.DB.AutoMigrate {
		if err := migrations.Up(sqlDB); err != nil {
			return err
		}
	}

	uow := infra_repository.NewUoW(db)
	engine := ledger.New(uow, nil, ledger.WithLockTimeout(cfg.Ledger.LockTimeout))
	return newCLI(engine, uow, os.Stdout).run(ctx, args)
}
