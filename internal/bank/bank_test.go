package bank

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"vendora/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_Resolve(t *testing.T) {
	dir := NewDirectory(DefaultTable())
	ctx := context.Background()

	code, err := dir.Resolve(ctx, "GTBank")
	require.NoError(t, err)
	assert.Equal(t, "058", code)
}

func TestDirectory_Resolve_NormalisesNames(t *testing.T) {
	dir := NewDirectory(map[string]string{"Zenith Bank": "057"})
	ctx := context.Background()

	tests := []string{
		"zenith bank",
		"ZENITH BANK",
		"  Zenith   Bank  ",
		"zenith\tbank",
	}
	for _, name := range tests {
		code, err := dir.Resolve(ctx, name)
		require.NoError(t, err, name)
		assert.Equal(t, "057", code, name)
	}
}

func TestDirectory_Resolve_UnknownBank(t *testing.T) {
	dir := NewDirectory(DefaultTable())

	_, err := dir.Resolve(context.Background(), "Bank of Nowhere")

	assert.ErrorIs(t, err, model.ErrUnknownBank)
}

func TestFileLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banks.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"GTBank":"058","UBA":"033"}`), 0o600))

	loader := NewFileLoader(zerolog.Nop())
	table, err := loader.Load(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"GTBank": "058", "UBA": "033"}, table)
}

func TestFileLoader_Load_MissingFile(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"))

	require.Error(t, err)
}

func TestFileLoader_Load_EmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banks.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	loader := NewFileLoader(zerolog.Nop())
	_, err := loader.Load(context.Background(), path)

	require.Error(t, err)
}

func TestLoadDirectory_FallsBackToBuiltIn(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	// No loader configured.
	dir := LoadDirectory(ctx, nil, "", logger)
	code, err := dir.Resolve(ctx, "First Bank")
	require.NoError(t, err)
	assert.Equal(t, "011", code)

	// Loader configured but the file is unreadable.
	dir = LoadDirectory(ctx, NewFileLoader(logger), "/nonexistent/banks.json", logger)
	code, err = dir.Resolve(ctx, "First Bank")
	require.NoError(t, err)
	assert.Equal(t, "011", code)
}

func TestLoadDirectory_UsesLoadedTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "banks.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Test Bank":"999"}`), 0o600))

	dir := LoadDirectory(ctx, NewFileLoader(zerolog.Nop()), path, zerolog.Nop())

	code, err := dir.Resolve(ctx, "test bank")
	require.NoError(t, err)
	assert.Equal(t, "999", code)

	_, err = dir.Resolve(ctx, "GTBank")
	assert.ErrorIs(t, err, model.ErrUnknownBank)
}
