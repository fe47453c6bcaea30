package promo

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"kart-checkout/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for snapshot files on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based promo loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "promo-loader").Logger(),
	}
}

// Load reads a gzipped JSON-lines promo file.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]model.PromoCode, error) {
	l.logger.Info().Str("file", filePath).Msg("loading promo file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open promo file")
		return nil, fmt.Errorf("failed to open promo file %s: %w", filePath, err)
	}
	defer file.Close()

	codes, err := readSnapshot(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read promo file")
		return nil, fmt.Errorf("failed to read promo file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("codes_loaded", len(codes)).
		Msg("promo file loaded successfully")

	return codes, nil
}

// readSnapshot decodes a gzipped stream of JSON promo records, one per line.
// Blank lines are skipped.
func readSnapshot(ctx context.Context, r io.Reader) ([]model.PromoCode, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var codes []model.PromoCode
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%10_000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var code model.PromoCode
		if err := json.Unmarshal([]byte(line), &code); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		codes = append(codes, code)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return codes, nil
}
