// Package maintenance provides tools for inspecting and cleaning the
// status cache database.
package maintenance

import (
	"fmt"
	"time"

	"github.com/craftstat/craftstat/internal/cache"
	"github.com/craftstat/craftstat/internal/config"
	"github.com/rs/zerolog/log"
)

// Run checks if any maintenance flags are set and executes the corresponding
// tasks. Returns true if a maintenance task was executed (indicating the
// program should exit).
func Run(cfg *config.Config, store *cache.SQLiteStore) bool {
	if cfg.Storage.List {
		entries, err := store.Entries()
		if err != nil {
			log.Error().Err(err).Msg("Failed to list cache records")
			return true
		}

		for _, e := range entries {
			fmt.Printf("%s\t%s\n", e.UpdatedAt.Local().Format(time.DateTime), e.Key)
		}
		log.Info().Int("count", len(entries)).Msg("Cache listing finished")

		return true
	}

	if cfg.Storage.PruneOlderDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -cfg.Storage.PruneOlderDays)
		log.Info().Time("cutoff", cutoff).Msg("Pruning stale cache records...")

		count, err := store.DeleteOlderThan(cutoff)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune cache records")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}

		return true
	}

	return false
}
