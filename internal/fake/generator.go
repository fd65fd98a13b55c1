// Package fake provides utilities for generating random cache data for
// testing and development purposes.
package fake

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/craftstat/craftstat/internal/cache"
	"github.com/craftstat/craftstat/internal/identicon"
	"github.com/craftstat/craftstat/internal/status"
	"github.com/rs/zerolog/log"
)

// GenerateData populates the store with a specified number of randomized
// server records. It simulates servers of various sizes with a filled
// weekly stats window.
func GenerateData(store cache.Store, count int) {
	hosts := []string{"play", "mc", "survival", "skyblock", "pvp", "hub", "lobby", "creative"}
	domains := []string{"example.com", "example.net", "example.org", "minecraft.test"}
	today := time.Now().Local().Format("2006-01-02")

	for i := 0; i < count; i++ {
		address := fmt.Sprintf("%s%d.%s", hosts[rand.Intn(len(hosts))], rand.Intn(1000), domains[rand.Intn(len(domains))])

		// Server capacity class
		maxPlayers := int64(20 << rand.Intn(6)) // 20 .. 640

		rec := cache.Record{
			Generated:      true,
			Favicon:        identicon.Generate("auto" + address),
			LastUpdatedDay: today,
		}

		for d := range rec.Days {
			samples := int64(rand.Intn(40) + 1)
			var total, peak int64
			for s := int64(0); s < samples; s++ {
				online := rand.Int63n(maxPlayers + 1)
				total += online
				if online > peak {
					peak = online
				}
			}
			rec.Days[d] = cache.DayBucket{
				Samples:     samples,
				TotalOnline: total,
				PeakOnline:  peak,
				PeakMax:     maxPlayers,
			}
		}

		// 10% of servers have never filled the whole window
		if rand.Float32() < 0.1 {
			empty := rand.Intn(status.WeekDays - 1)
			for d := 0; d < empty; d++ {
				rec.Days[d] = cache.DayBucket{}
			}
		}

		data, err := json.Marshal(&rec)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to marshal fake record")
			continue
		}

		if err := store.PutBytes(address, data); err != nil {
			log.Warn().Err(err).Str("address", address).Msg("Failed to generate fake record")
		}
	}
}
