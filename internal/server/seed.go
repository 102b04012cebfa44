package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wettergames/cityguess/internal/game"
)

// demoCities is a fixed candidate pool for local development rounds.
var demoCities = []struct {
	name   string
	region string
	lat    float64
	lng    float64
}{
	{"Lisbon", "Portugal", 38.7223, -9.1393},
	{"Porto", "Portugal", 41.1579, -8.6291},
	{"Madrid", "Spain", 40.4168, -3.7038},
	{"Seville", "Spain", 37.3891, -5.9845},
	{"Bordeaux", "France", 44.8378, -0.5792},
	{"Lyon", "France", 45.7640, 4.8357},
	{"Geneva", "Switzerland", 46.2044, 6.1432},
	{"Milan", "Italy", 45.4642, 9.1900},
	{"Florence", "Italy", 43.7696, 11.2558},
	{"Naples", "Italy", 40.8518, 14.2681},
	{"Vienna", "Austria", 48.2082, 16.3738},
	{"Prague", "Czechia", 50.0755, 14.4378},
	{"Krakow", "Poland", 50.0647, 19.9450},
	{"Budapest", "Hungary", 47.4979, 19.0402},
	{"Zagreb", "Croatia", 45.8150, 15.9819},
	{"Athens", "Greece", 37.9838, 23.7275},
	{"Sofia", "Bulgaria", 42.6977, 23.3219},
	{"Bucharest", "Romania", 44.4268, 26.1025},
	{"Oslo", "Norway", 59.9139, 10.7522},
	{"Bergen", "Norway", 60.3913, 5.3221},
	{"Gothenburg", "Sweden", 57.7089, 11.9746},
	{"Aarhus", "Denmark", 56.1629, 10.2039},
	{"Rotterdam", "Netherlands", 51.9244, 4.4777},
	{"Antwerp", "Belgium", 51.2194, 4.4025},
}

// SeedDemo creates a demo admin and publishes a synthetic round for today,
// so a fresh database is playable without the weather proxy. Idempotent.
func SeedDemo(ctx context.Context, logger *slog.Logger, db *sql.DB, store Store) error {
	var admins int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&admins); err != nil {
		return fmt.Errorf("counting admins: %w", err)
	}
	if admins == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, `
			INSERT INTO admins (id, email, password_hash) VALUES (?, ?, ?)
		`, newID(), "demo@cityguess.local", string(hash)); err != nil {
			return fmt.Errorf("creating demo admin: %w", err)
		}
		logger.Info("demo admin created", "email", "demo@cityguess.local")
	}

	day := time.Now().UTC().Format("2006-01-02")
	if _, err := store.RoundByDay(ctx, day); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	candidates := make([]game.Candidate, 0, game.RoundSize)
	for i, c := range demoCities {
		// Distinct synthetic stats per city; spacing above the equality
		// tolerance keeps every tuple unique.
		candidates = append(candidates, game.Candidate{
			ID:     fmt.Sprintf("demo-%02d", i+1),
			Name:   c.name,
			Region: c.region,
			Lat:    c.lat,
			Lng:    c.lng,
			Stats: game.Stats{
				TempMax:       12 + float64(i)*0.5,
				TempMin:       3 + float64(i)*0.4,
				Precipitation: float64(i) * 0.7,
				Sunshine:      float64((i * 4) % 100),
				WindMax:       10 + float64(i)*1.5,
				Pressure:      1000 + float64(i),
			},
		})
	}

	// Rotate the demo target with the calendar day.
	target := candidates[int(day[len(day)-1]-'0')%len(candidates)].Stats
	if err := store.PublishRound(ctx, day, candidates, target); err != nil {
		return fmt.Errorf("publishing demo round: %w", err)
	}
	logger.Info("demo round published", "day", day)
	return nil
}
