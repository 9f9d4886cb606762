package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"cinebook/internal/config"
	"cinebook/internal/database"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/logger"
	"cinebook/internal/models"
	"cinebook/internal/repository"

	"github.com/google/uuid"
)

var (
	showCount  = flag.Int("shows", 5, "Number of shows to seed")
	rows       = flag.Int("rows", 10, "Rows per screen")
	rowSeats   = flag.Int("row-seats", 20, "Seats per row")
	workers    = flag.Int("workers", 0, "Concurrent hold workers to run against the seeded shows (0 = seed only)")
	holdRounds = flag.Int("rounds", 50, "Hold attempts per worker")
)

// Seeds shows and optionally hammers the inventory with concurrent hold
// attempts to observe conflict behavior under contention.
func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("failed to run migrations", "error", err)
	}

	repos := repository.NewRepositories(db)
	ctx := context.Background()

	shows, err := seedShows(ctx, repos.Shows)
	if err != nil {
		logger.Fatal("failed to seed shows", "error", err)
	}
	logger.Get().Info("shows seeded", "count", len(shows))

	if *workers > 0 {
		runHoldLoad(ctx, repos, shows, cfg.Booking.HoldTTL)
	}
}

func seedShows(ctx context.Context, showRepo *repository.ShowRepository) ([]*models.Show, error) {
	titles := []string{
		"The Last Reel", "Midnight Express", "Northern Lights",
		"Paper Planes", "The Glass Orchard", "Second Act",
		"Red Harvest", "Quiet Waters",
	}

	shows := make([]*models.Show, 0, *showCount)
	for i := 0; i < *showCount; i++ {
		show := &models.Show{
			ScreenID:  int64(i + 1),
			Title:     titles[i%len(titles)],
			StartsAt:  time.Now().Add(time.Duration(24+i*6) * time.Hour),
			BasePrice: int64(1000 + rand.Intn(10)*100),
		}
		if err := showRepo.Create(ctx, show, *rows, *rowSeats); err != nil {
			return nil, fmt.Errorf("failed to create show %q: %w", show.Title, err)
		}
		shows = append(shows, show)
	}
	return shows, nil
}

// runHoldLoad fires concurrent hold attempts at random seat sets. The
// interesting output is the conflict rate and that no attempt ever gets
// a partial reservation.
func runHoldLoad(ctx context.Context, repos *repository.Repositories, shows []*models.Show, holdTTL time.Duration) {
	logger.Get().Info("starting hold load", "workers", *workers, "rounds", *holdRounds)

	var created, conflicts, failures int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			actor := fmt.Sprintf("load-worker-%d", worker)

			for round := 0; round < *holdRounds; round++ {
				show := shows[rand.Intn(len(shows))]
				seatIDs, err := randomSeats(ctx, repos.Shows, show.ID, 1+rand.Intn(4))
				if err != nil || len(seatIDs) == 0 {
					continue
				}

				hold := &models.Hold{
					Token:     uuid.New().String(),
					ShowID:    show.ID,
					Actor:     actor,
					SeatIDs:   seatIDs,
					ExpiresAt: time.Now().Add(holdTTL),
				}

				err = repos.Inventory.Reserve(ctx, hold)
				mu.Lock()
				switch {
				case err == nil:
					created++
				default:
					if _, ok := apperrors.AsSeatConflict(err); ok {
						conflicts++
					} else {
						failures++
					}
				}
				mu.Unlock()
			}
		}(w)
	}

	wg.Wait()
	logger.Get().Info("hold load finished",
		"created", created, "conflicts", conflicts, "failures", failures)
}

func randomSeats(ctx context.Context, showRepo *repository.ShowRepository, showID int64, n int) ([]string, error) {
	items, err := showRepo.SeatMap(ctx, showID)
	if err != nil {
		return nil, err
	}

	var available []string
	for _, item := range items {
		if item.Status == models.SeatAvailable {
			available = append(available, item.SeatID)
		}
	}
	if len(available) == 0 {
		return nil, nil
	}

	rand.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})
	if n > len(available) {
		n = len(available)
	}
	return available[:n], nil
}
