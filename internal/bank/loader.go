package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Loader reads a bank directory table from some backing store. The file is
// a JSON object mapping bank names to codes.
type Loader interface {
	Load(ctx context.Context, path string) (map[string]string, error)
}

// fileLoader implements Loader for local JSON directory files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based bank directory loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "bank-loader").Logger(),
	}
}

// Load reads a JSON bank directory file.
func (l *fileLoader) Load(_ context.Context, path string) (map[string]string, error) {
	l.logger.Info().Str("file", path).Msg("loading bank directory file")

	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read bank directory file")
		return nil, fmt.Errorf("failed to read bank directory file %s: %w", path, err)
	}

	table, err := decodeTable(data)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to decode bank directory file")
		return nil, fmt.Errorf("failed to decode bank directory file %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("banks_loaded", len(table)).
		Msg("bank directory loaded successfully")

	return table, nil
}

func decodeTable(data []byte) (map[string]string, error) {
	var table map[string]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("bank directory is empty")
	}
	return table, nil
}

// LoadDirectory builds a Directory from the loader, falling back to the
// built-in table when no path is configured or loading fails. Payouts must
// keep working even if the external directory source is down.
func LoadDirectory(ctx context.Context, loader Loader, path string, logger zerolog.Logger) Directory {
	if loader == nil || path == "" {
		logger.Info().Msg("using built-in bank directory")
		return NewDirectory(DefaultTable())
	}

	table, err := loader.Load(ctx, path)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load bank directory, falling back to built-in table")
		return NewDirectory(DefaultTable())
	}
	return NewDirectory(table)
}
