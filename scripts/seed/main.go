// Package main is a standalone seed tool that fills the shared airline
// database with airports, airplanes, upcoming flights and an admin account.
// It applies every service's migrations first, so it can run against an
// empty database before the services have started.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skybook/airline/pkg/auth"
	pkgconfig "github.com/skybook/airline/pkg/config"
	"github.com/skybook/airline/pkg/credential"
	"github.com/skybook/airline/pkg/database"
	apperrors "github.com/skybook/airline/pkg/errors"
	"github.com/skybook/airline/pkg/logger"
	airplanemigrations "github.com/skybook/airline/services/airplane/migrations"
	airportmigrations "github.com/skybook/airline/services/airport/migrations"
	flightmigrations "github.com/skybook/airline/services/flight/migrations"
	notificationmigrations "github.com/skybook/airline/services/notification/migrations"
	reservationmigrations "github.com/skybook/airline/services/reservation/migrations"
	usermigrations "github.com/skybook/airline/services/user/migrations"
)

type seedConfig struct {
	pkgconfig.Common

	AdminUsername string `env:"SEED_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD" envDefault:"Admin12345"`
	AdminEmail    string `env:"SEED_ADMIN_EMAIL" envDefault:"admin@skybook.local"`
	Flights       int    `env:"SEED_FLIGHTS" envDefault:"40"`
	Seed          uint64 `env:"SEED_RANDOM_SEED" envDefault:"42"`
}

func main() {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg := &seedConfig{}
	if err := pkgconfig.Load(cfg); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("seed", cfg.LogLevel)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete")
}

func run(ctx context.Context, cfg *seedConfig, log *slog.Logger) error {
	pgCfg := database.PostgresConfigFrom(&cfg.Common)
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	schemas := []struct {
		service string
		fs      fs.FS
	}{
		{"user", usermigrations.FS},
		{"airport", airportmigrations.FS},
		{"airplane", airplanemigrations.FS},
		{"flight", flightmigrations.FS},
		{"reservation", reservationmigrations.FS},
		{"notification", notificationmigrations.FS},
	}
	for _, s := range schemas {
		if err := database.RunMigrations(ctx, pool, s.fs, s.service, log); err != nil {
			return fmt.Errorf("migrate %s: %w", s.service, err)
		}
	}

	if err := seedAdmin(ctx, pool, cfg, log); err != nil {
		return err
	}

	var existing int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM airports`).Scan(&existing); err != nil {
		return fmt.Errorf("count airports: %w", err)
	}
	if existing > 0 {
		log.Info("airports already present, skipping fleet and flights", slog.Int("airports", existing))
		return nil
	}

	airports := defaultAirports()
	for i := range airports {
		a := &airports[i]
		err := pool.QueryRow(ctx, `
			INSERT INTO airports (name, country, city, longitude, latitude, description)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			a.name, a.country, a.city, a.longitude, a.latitude, a.description,
		).Scan(&a.id)
		if err != nil {
			return fmt.Errorf("insert airport %q: %w", a.name, err)
		}
	}
	log.Info("seeded airports", slog.Int("count", len(airports)))

	airplanes := defaultAirplanes()
	for i := range airplanes {
		p := &airplanes[i]
		err := pool.QueryRow(ctx, `
			INSERT INTO airplanes (model, production_date, number_of_seats, max_distance, airport_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			p.model, p.productionDate, p.seats, p.maxDistance, airports[p.airportIdx].id,
		).Scan(&p.id)
		if err != nil {
			return fmt.Errorf("insert airplane %q: %w", p.model, err)
		}
	}
	log.Info("seeded airplanes", slog.Int("count", len(airplanes)))

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	flights := planFlights(rng, airports, airplanes, cfg.Flights, time.Now().UTC())
	if err := insertFlights(ctx, pool, flights); err != nil {
		return err
	}
	log.Info("seeded flights", slog.Int("count", len(flights)))
	return nil
}

func insertFlights(ctx context.Context, pool *pgxpool.Pool, flights []flightDef) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert flights: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, f := range flights {
		_, err := tx.Exec(ctx, `
			INSERT INTO flights (airplane_id, start_airport_id, destination_airport_id, start_date,
			                     arrival_date, price, number_of_available_seats, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			f.airplaneID, f.startAirportID, f.destinationAirportID, f.startDate,
			f.arrivalDate, f.price, f.seats, f.description,
		)
		if err != nil {
			return fmt.Errorf("insert flight %s: %w", f.description, err)
		}
	}
	return tx.Commit(ctx)
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, cfg *seedConfig, log *slog.Logger) error {
	store := credential.NewStore(pool)
	if _, err := store.FindByUsername(ctx, cfg.AdminUsername); err == nil {
		log.Info("admin user already present", slog.String("username", cfg.AdminUsername))
		return nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("find admin user: %w", err)
	}

	hasher := auth.NewPasswordHasher(0)
	salt, err := hasher.NewSalt()
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(cfg.AdminPassword, salt)
	if err != nil {
		return err
	}
	rec := &credential.Record{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		PasswordSalt: salt,
		Roles:        []string{credential.RoleUser, credential.RoleAdmin},
	}
	if err := store.Create(ctx, rec); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Info("created admin user", slog.String("username", rec.Username), slog.Int64("id", rec.ID))
	return nil
}
