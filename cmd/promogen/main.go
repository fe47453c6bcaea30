package main

import (
	"compress/gzip"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kart-checkout/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// promogen writes promo snapshot files read by the snapshot promo source.
// Two files are produced so the override order can be exercised:
// promos.jsonl.gz holds the base set and promos-override.jsonl.gz redefines
// SUMMER10 with a different rate and adds WINTER5.
func main() {
	dir := flag.String("dir", "data/promos", "output directory")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", *dir).Msg("failed to create output directory")
	}

	for name, codes := range sampleSets(time.Now().UTC()) {
		path := filepath.Join(*dir, name)
		if err := writeSnapshot(path, codes); err != nil {
			logger.Fatal().Err(err).Str("file", path).Msg("failed to write promo snapshot")
		}
		logger.Info().Str("file", path).Int("codes", len(codes)).Msg("promo snapshot written")
	}
}

func sampleSets(now time.Time) map[string][]model.PromoCode {
	lastMonth := now.AddDate(0, -1, 0)
	nextMonth := now.AddDate(0, 1, 0)
	lastWeek := now.AddDate(0, 0, -7)

	return map[string][]model.PromoCode{
		"promos.jsonl.gz": {
			{Title: "FIVEOFF", Type: model.DiscountFlat, Rate: decimal.NewFromInt(5)},
			{Title: "SUMMER10", Type: model.DiscountPercent, Rate: decimal.NewFromInt(10), ValidFrom: &lastMonth, ValidUntil: &nextMonth},
			{Title: "EXPIRED20", Type: model.DiscountPercent, Rate: decimal.NewFromInt(20), ValidUntil: &lastWeek},
			{Title: "NEXTMONTH", Type: model.DiscountFlat, Rate: decimal.NewFromInt(15), ValidFrom: &nextMonth},
		},
		"promos-override.jsonl.gz": {
			{Title: "SUMMER10", Type: model.DiscountPercent, Rate: decimal.NewFromInt(12), ValidFrom: &lastMonth, ValidUntil: &nextMonth},
			{Title: "WINTER5", Type: model.DiscountPercent, Rate: decimal.NewFromInt(5)},
		},
	}
}

// writeSnapshot writes codes as gzipped JSON lines. Codes that fail
// validation are rejected rather than written.
func writeSnapshot(path string, codes []model.PromoCode) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	enc := json.NewEncoder(gzipWriter)
	for i := range codes {
		if err := codes[i].Validate(); err != nil {
			return err
		}
		if err := enc.Encode(&codes[i]); err != nil {
			return fmt.Errorf("failed to write promo code %q: %w", codes[i].Title, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush gzip stream: %w", err)
	}
	return file.Close()
}
