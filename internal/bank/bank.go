package bank

import (
	"context"
	"strings"

	"vendora/internal/model"
)

// Directory resolves a human-entered bank name to the code the transfer API
// requires.
type Directory interface {
	// Resolve returns the bank code for a name, or model.ErrUnknownBank.
	Resolve(ctx context.Context, name string) (string, error)
}

// staticDirectory is an immutable name -> code table with normalised keys.
type staticDirectory struct {
	codes map[string]string
}

// NewDirectory creates a Directory from a name -> code table.
func NewDirectory(table map[string]string) Directory {
	codes := make(map[string]string, len(table))
	for name, code := range table {
		codes[normalise(name)] = code
	}
	return &staticDirectory{codes: codes}
}

// Resolve returns the bank code for a name, or model.ErrUnknownBank.
func (d *staticDirectory) Resolve(_ context.Context, name string) (string, error) {
	code, ok := d.codes[normalise(name)]
	if !ok {
		return "", model.ErrUnknownBank
	}
	return code, nil
}

// normalise makes lookups tolerant of case and spacing differences in
// user-entered bank names.
func normalise(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// DefaultTable returns the built-in bank directory, used when no external
// directory file is configured or loading it fails.
func DefaultTable() map[string]string {
	return map[string]string{
		"Access Bank":        "044",
		"Citibank":           "023",
		"Ecobank":            "050",
		"Fidelity Bank":      "070",
		"First Bank":         "011",
		"FCMB":               "214",
		"GTBank":             "058",
		"Heritage Bank":      "030",
		"Keystone Bank":      "082",
		"Polaris Bank":       "076",
		"Stanbic IBTC":       "221",
		"Standard Chartered": "068",
		"Sterling Bank":      "232",
		"Union Bank":         "032",
		"UBA":                "033",
		"Unity Bank":         "215",
		"Wema Bank":          "035",
		"Zenith Bank":        "057",
	}
}
