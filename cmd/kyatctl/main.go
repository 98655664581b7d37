// Command kyatctl runs operator tasks against the KyatFlow database:
// schema migrations, redemption codes and subscription maintenance.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/golang-migrate/migrate/v4"

	"kyatflow/internal/config"
	"kyatflow/internal/database"
	"kyatflow/internal/logger"
	"kyatflow/internal/models"
	"kyatflow/internal/services"
	"kyatflow/internal/uuid"
)

// env carries what every command needs once the database is open.
type env struct {
	cfg        *config.Config
	db         *database.Manager
	migrations string
}

func (e *env) subscriptions() services.SubscriptionServicer {
	notifier := services.NewNotifier(services.SMTPConfig{
		Host:     e.cfg.SMTPHost,
		Port:     e.cfg.SMTPPort,
		Username: e.cfg.SMTPUser,
		Password: e.cfg.SMTPPassword,
		From:     e.cfg.SMTPFrom,
		To:       e.cfg.AdminNotifyEmail,
	})
	return services.NewSubscriptionService(e.db.DB(), notifier, e.cfg.TrialDays, e.cfg.ProDays)
}

var cli struct {
	Migrations string `help:"Migration source URL." default:"file://migrations" env:"MIGRATIONS_PATH"`

	Migrate       migrateCmd       `cmd:"" help:"Manage the database schema."`
	Codes         codesCmd         `cmd:"" help:"Manage redemption codes."`
	Users         usersCmd         `cmd:"" help:"Manage user plans."`
	Subscriptions subscriptionsCmd `cmd:"" help:"Subscription maintenance."`
}

type migrateCmd struct {
	Up      migrateUpCmd      `cmd:"" help:"Apply all pending migrations."`
	Down    migrateDownCmd    `cmd:"" help:"Roll back migrations."`
	Version migrateVersionCmd `cmd:"" help:"Print the current schema version."`
}

type migrateUpCmd struct{}

func (c *migrateUpCmd) Run(e *env) error {
	return e.db.RunMigrations(e.migrations)
}

type migrateDownCmd struct {
	Steps int `arg:"" optional:"" default:"1" help:"Number of migrations to roll back."`
}

func (c *migrateDownCmd) Run(e *env) error {
	if c.Steps < 1 {
		return fmt.Errorf("invalid step count: %d", c.Steps)
	}
	mig, err := e.db.Migrator(e.migrations)
	if err != nil {
		return err
	}
	defer database.CloseMigrator(mig)

	if err := mig.Steps(-c.Steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	logger.Get().Infof("Rolled back %d migration(s)", c.Steps)
	return nil
}

type migrateVersionCmd struct{}

func (c *migrateVersionCmd) Run(e *env) error {
	mig, err := e.db.Migrator(e.migrations)
	if err != nil {
		return err
	}
	defer database.CloseMigrator(mig)

	version, dirty, err := mig.Version()
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}
	fmt.Printf("version %d dirty=%v\n", version, dirty)
	return nil
}

type codesCmd struct {
	Generate codesGenerateCmd `cmd:"" help:"Mint single-use redemption codes."`
}

type codesGenerateCmd struct {
	Count int `short:"n" default:"1" help:"How many codes to mint."`
}

func (c *codesGenerateCmd) Run(e *env) error {
	if c.Count < 1 || c.Count > 1000 {
		return fmt.Errorf("count must be between 1 and 1000")
	}
	subs := e.subscriptions()
	for i := 0; i < c.Count; i++ {
		code, err := subs.GenerateCode()
		if err != nil {
			return err
		}
		fmt.Println(code.Code)
	}
	return nil
}

type usersCmd struct {
	SetStatus usersSetStatusCmd `cmd:"" help:"Override a user's subscription status."`
}

type usersSetStatusCmd struct {
	User   string `arg:"" help:"User ID or email."`
	Status string `arg:"" enum:"free,trial,pro,expired" help:"New status."`
	Days   int    `help:"Plan length in days for trial and pro." default:"0"`
}

func (c *usersSetStatusCmd) Run(e *env) error {
	userID := c.User
	if !uuid.IsValid(userID) {
		user, err := services.NewUserService(e.db.DB(), e.cfg.AdminEmails).GetUserByEmail(c.User)
		if err != nil {
			return err
		}
		userID = user.ID
	}

	var days *int
	if c.Days > 0 {
		days = &c.Days
	}

	user, err := e.subscriptions().AdminSetStatus(userID, models.SubscriptionStatus(c.Status), days)
	if err != nil {
		return err
	}
	end := "none"
	if user.SubscriptionEndDate != nil {
		end = user.SubscriptionEndDate.Format("2006-01-02 15:04 MST")
	}
	fmt.Printf("%s %s until %s\n", user.Email, user.SubscriptionStatus, end)
	return nil
}

type subscriptionsCmd struct {
	Expire subscriptionsExpireCmd `cmd:"" help:"Move overdue trial and pro plans to expired."`
}

type subscriptionsExpireCmd struct{}

func (c *subscriptionsExpireCmd) Run(e *env) error {
	count, err := e.subscriptions().ExpireOverdue()
	if err != nil {
		return err
	}
	fmt.Printf("expired %d subscription(s)\n", count)
	return nil
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	ctx := kong.Parse(&cli,
		kong.Name("kyatctl"),
		kong.Description("Operator tool for the KyatFlow backend."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	ctx.FatalIfErrorf(err)

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	ctx.FatalIfErrorf(err)
	defer func() {
		if err := dbManager.Close(); err != nil {
			logger.Get().Warnf("failed to close database: %v", err)
		}
	}()

	err = ctx.Run(&env{cfg: cfg, db: dbManager, migrations: cli.Migrations})
	ctx.FatalIfErrorf(err)
}
