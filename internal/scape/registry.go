package scape

import (
	"fmt"
	"sort"
	"strings"
)

var registry = map[string]Scape{
	XORScape{}.Name():       XORScape{},
	TicTacToeScape{}.Name(): TicTacToeScape{},
	QueensScape{}.Name():    QueensScape{},
}

// Names returns the canonical scape names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a scape by canonical name or alias.
func Lookup(name string) (Scape, error) {
	canonical := Normalize(name)
	s, ok := registry[canonical]
	if !ok {
		return nil, fmt.Errorf("unknown scape %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Normalize canonicalizes scape names and their common aliases.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}
	normalized = strings.TrimPrefix(normalized, "scape-")

	switch strings.ReplaceAll(normalized, "-", "") {
	case "xor":
		return "xor"
	case "tictactoe", "ttt", "noughtsandcrosses":
		return "tictactoe"
	case "queens", "eightqueens", "8queens", "eightqueenspuzzle":
		return "queens"
	default:
		return normalized
	}
}
