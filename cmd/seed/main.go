package main

import (
	"context"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

// Env is the seed tool's flat environment config; it deliberately bypasses
// the YAML config file so it can run against any database.
type Env struct {
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName     string `envconfig:"DB_NAME" default:"clinic"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	Password   string `envconfig:"SEED_PASSWORD" default:"admin"`
}

type seedAccount struct {
	username string
	role     model.Role
}

var accounts = []seedAccount{
	{"admin", model.RoleAdmin},
	{"recepcion", model.RoleReceptionist},
	{"dr.house", model.RolePhysician},
}

type seedPatient struct {
	fullName   string
	nationalID string
	birthDate  string
	phone      string
}

var patients = []seedPatient{
	{"Juan Pérez", "10001", "1985-05-15", "70010001"},
	{"María Rodríguez", "10002", "1990-08-20", "70010002"},
	{"Carlos Gómez", "10003", "1978-02-10", "70010003"},
	{"Ana Fernández", "10004", "1995-11-30", "70010004"},
	{"Luis Martínez", "10005", "1982-07-25", "70010005"},
	{"Laura López", "10006", "2000-01-15", "70010006"},
	{"Pedro Sánchez", "10007", "1965-09-05", "70010007"},
	{"Sofía Díaz", "10008", "1988-03-22", "70010008"},
	{"Jorge Torres", "10009", "1975-12-12", "70010009"},
	{"Elena Ruiz", "10010", "1992-06-18", "70010010"},
	{"Miguel Ángel Castro", "10011", "1980-04-01", "70010011"},
	{"Patricia Morales", "10012", "1998-10-10", "70010012"},
	{"Fernando Ortiz", "10013", "1970-05-05", "70010013"},
	{"Gabriela Herrera", "10014", "1985-08-08", "70010014"},
	{"Ricardo Vargas", "10015", "1993-02-28", "70010015"},
	{"Carmen Castillo", "10016", "1960-11-11", "70010016"},
	{"Roberto Mendoza", "10017", "1987-07-07", "70010017"},
	{"Isabel Romero", "10018", "1991-09-19", "70010018"},
	{"Daniel Silva", "10019", "1983-03-03", "70010019"},
	{"Verónica Rojas", "10020", "1996-06-06", "70010020"},
}

func main() {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		log.Fatal().Err(err).Msg("failed to read environment")
	}

	db, err := postgres.NewDB(config.DatabaseConfig{
		Host:     env.DBHost,
		Port:     env.DBPort,
		User:     env.DBUser,
		Password: env.DBPassword,
		Name:     env.DBName,
		SSLMode:  env.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()

	// Wipe in dependency order
	for _, table := range []string{"outbox_events", "appointments", "patients", "accounts"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			log.Fatal().Err(err).Str("table", table).Msg("failed to wipe table")
		}
	}
	log.Info().Msg("existing data removed")

	base := postgres.NewBaseRepository(db)
	accountRepo := postgres.NewAccountRepository(base)
	patientRepo := postgres.NewPatientRepository(base)
	hasher := security.NewBcryptHasher(10)

	hash, err := hasher.Hash(env.Password)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash seed password")
	}

	for _, a := range accounts {
		if err := accountRepo.Create(ctx, &model.Account{
			Username:     a.username,
			PasswordHash: hash,
			Role:         a.role,
		}); err != nil {
			log.Fatal().Err(err).Str("username", a.username).Msg("failed to create account")
		}
	}
	log.Info().Int("count", len(accounts)).Msg("demo accounts created")

	for _, p := range patients {
		birthDate, err := time.Parse("2006-01-02", p.birthDate)
		if err != nil {
			log.Fatal().Err(err).Str("patient", p.fullName).Msg("invalid birth date")
		}
		if err := patientRepo.Create(ctx, &model.Patient{
			FullName:   p.fullName,
			NationalID: p.nationalID,
			BirthDate:  birthDate,
			Phone:      p.phone,
		}); err != nil {
			log.Fatal().Err(err).Str("patient", p.fullName).Msg("failed to create patient")
		}
	}
	log.Info().Int("count", len(patients)).Msg("demo patients created")
}
