package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"cinebook/internal/config"
	"cinebook/internal/database"
	"cinebook/internal/external"
	"cinebook/internal/logger"
	"cinebook/internal/models"
	"cinebook/internal/repository"
)

const catalogPageSize = 100

func main() {
	var lookAheadDays int
	flag.IntVar(&lookAheadDays, "days", 14, "Import shows starting within this many days")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	logger.Get().Info("starting show synchronization", "look_ahead_days", lookAheadDays)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("failed to run migrations", "error", err)
	}

	showRepo := repository.NewShowRepository(db)
	catalogClient := external.NewCatalogClient(cfg.Catalog)

	imported, err := syncShows(context.Background(), showRepo, catalogClient, lookAheadDays)
	if err != nil {
		logger.Fatal("show synchronization failed", "error", err)
	}

	logger.Get().Info("show synchronization completed", "imported", imported)
}

func syncShows(ctx context.Context, showRepo *repository.ShowRepository, catalogClient *external.CatalogClient, lookAheadDays int) (int, error) {
	existing, err := showRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list existing shows: %w", err)
	}

	// The catalog has no stable key shared with us, so (screen, start
	// time) identifies a show across sync runs.
	seen := make(map[string]struct{}, len(existing))
	for _, show := range existing {
		seen[showKey(show.ScreenID, show.StartsAt)] = struct{}{}
	}

	horizon := time.Now().Add(time.Duration(lookAheadDays) * 24 * time.Hour)
	imported := 0

	for page := 1; ; page++ {
		upstream, err := catalogClient.ListUpcoming(ctx, time.Now(), page, catalogPageSize)
		if err != nil {
			return imported, fmt.Errorf("failed to fetch catalog page %d: %w", page, err)
		}
		if len(upstream) == 0 {
			break
		}

		for _, entry := range upstream {
			if entry.StartsAt.After(horizon) {
				continue
			}
			if _, dup := seen[showKey(entry.ScreenID, entry.StartsAt)]; dup {
				continue
			}

			show := &models.Show{
				ScreenID:  entry.ScreenID,
				Title:     entry.Title,
				StartsAt:  entry.StartsAt,
				BasePrice: entry.BasePrice,
			}
			if err := showRepo.Create(ctx, show, entry.Rows, entry.RowSeats); err != nil {
				logger.Get().Error("failed to import show",
					"error", err, "title", entry.Title, "starts_at", entry.StartsAt)
				continue
			}

			seen[showKey(show.ScreenID, show.StartsAt)] = struct{}{}
			imported++
			logger.Get().Info("imported show",
				"show_id", show.ID, "title", show.Title, "total_seats", show.TotalSeats)
		}
	}

	return imported, nil
}

func showKey(screenID int64, startsAt time.Time) string {
	return fmt.Sprintf("%d@%d", screenID, startsAt.UTC().Unix())
}
