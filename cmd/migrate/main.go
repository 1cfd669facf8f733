package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"board-automator-api/db/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// migrator is the subset of *migrate.Migrate the commands use.
type migrator interface {
	Up() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Close() (error, error)
}

type migratorFactory func(databaseURL string) (migrator, error)

func newMigrator(databaseURL string) (migrator, error) {
	src, err := iofs.New(migrations.SQLFiles, ".")
	if err != nil {
		return nil, fmt.Errorf("could not open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	return m, nil
}

func main() {
	_ = godotenv.Load()

	if err := newRootCommand(newMigrator).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(factory migratorFactory) *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Beheer het database schema van board-automator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection string (default $DATABASE_URL)")

	// withMigrator opent de migrator, voert fn uit en sluit hem weer
	withMigrator := func(fn func(m migrator, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, _ []string) error {
			if databaseURL == "" {
				return errors.New("database url is required (--database-url or DATABASE_URL)")
			}
			m, err := factory(databaseURL)
			if err != nil {
				return err
			}
			defer m.Close()
			return fn(m, c.OutOrStdout())
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(m migrator, out io.Writer) error {
			if err := m.Up(); err != nil {
				if errors.Is(err, migrate.ErrNoChange) {
					fmt.Fprintln(out, "no change")
					return nil
				}
				return fmt.Errorf("migrate up: %w", err)
			}
			fmt.Fprintln(out, "migrations applied")
			return nil
		}),
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the given number of migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(m migrator, out io.Writer) error {
			if steps < 1 {
				return fmt.Errorf("steps must be at least 1, got %d", steps)
			}
			if err := m.Steps(-steps); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			fmt.Fprintf(out, "rolled back %d migration(s)\n", steps)
			return nil
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(m migrator, out io.Writer) error {
			v, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Fprintln(out, "no migrations applied")
				return nil
			}
			if err != nil {
				return fmt.Errorf("migrate version: %w", err)
			}
			fmt.Fprintf(out, "version %d (dirty: %t)\n", v, dirty)
			return nil
		}),
	})

	// force zet de versie zonder migraties te draaien, voor een dirty database
	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return withMigrator(func(m migrator, out io.Writer) error {
				if err := m.Force(v); err != nil {
					return fmt.Errorf("migrate force: %w", err)
				}
				fmt.Fprintf(out, "forced version %d\n", v)
				return nil
			})(c, args)
		},
	})

	return cmd
}
