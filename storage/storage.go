// Package storage loads the pantry artifact used to seed a session's
// ingredient list.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type PantryState interface {
	Load(ctx context.Context) ([]byte, error)
}

// Ingredient is one entry of a pantry artifact. Only Name is required.
type Ingredient struct {
	Name string  `json:"name"`
	Qty  float64 `json:"qty,omitempty"`
	Unit string  `json:"unit,omitempty"`
}

// Label is the free text used in the session's ingredient list.
func (i Ingredient) Label() string {
	name := strings.TrimSpace(i.Name)
	if i.Qty <= 0 {
		return name
	}
	qty := strconv.FormatFloat(i.Qty, 'f', -1, 64)
	if unit := strings.TrimSpace(i.Unit); unit != "" {
		qty += " " + unit
	}
	return fmt.Sprintf("%s (%s)", name, qty)
}

type Pantry struct {
	Ingredients []Ingredient `json:"ingredients"`
}

// DecodeIngredients accepts either {"ingredients":[{"name":...}]} or a plain
// array of strings. Blank names are skipped and order is preserved.
func DecodeIngredients(data []byte) ([]string, error) {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		return cleanNames(names), nil
	}

	var p Pantry
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode pantry: %w", err)
	}

	labels := make([]string, 0, len(p.Ingredients))
	for _, ing := range p.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		labels = append(labels, ing.Label())
	}
	return labels, nil
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// LoadIngredients loads and decodes the pantry held by state.
func LoadIngredients(ctx context.Context, state PantryState) ([]string, error) {
	data, err := state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pantry: %w", err)
	}
	return DecodeIngredients(data)
}

// TestPantryState is a simple in-memory implementation for testing
type TestPantryState struct {
	data []byte
	err  error
}

func NewTestPantryState(data []byte) *TestPantryState {
	return &TestPantryState{data: data}
}

func NewTestPantryStateWithError() *TestPantryState {
	return &TestPantryState{err: errors.New("not found")}
}

func (t *TestPantryState) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}
