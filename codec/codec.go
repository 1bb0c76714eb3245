// Package codec renders the prompt of each AI operation and decodes the
// structured responses into typed values.
package codec

import (
	"encoding/json"
	"fmt"

	"vitalia"
)

type Codec struct {
	registry    Registry
	lenientJSON bool
}

type Option func(*Codec)

// WithLenientJSON accepts a structured response wrapped in prose or code
// fences by decoding the first JSON object found in it. Only use it with
// providers that have no JSON response mode.
func WithLenientJSON(enabled bool) Option {
	return func(c *Codec) { c.lenientJSON = enabled }
}

func New(opts ...Option) (*Codec, error) {
	registry, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	c := &Codec{registry: registry}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) Registry() Registry { return c.registry }

type planData struct {
	Profile     vitalia.Profile
	DailyTarget int
	Ingredients []string
}

func (c *Codec) PlanPrompt(p vitalia.Profile, dailyTarget int, ingredients []string) (vitalia.Prompt, error) {
	return c.render(vitalia.OperationPlan, planData{Profile: p, DailyTarget: dailyTarget, Ingredients: ingredients})
}

// ShoppingListPrompt embeds the plan's meals as JSON.
func (c *Codec) ShoppingListPrompt(plan vitalia.DailyPlan) (vitalia.Prompt, error) {
	meals, err := json.Marshal(mealsToWire(plan.Meals))
	if err != nil {
		return vitalia.Prompt{}, fmt.Errorf("failed to marshal meals: %w", err)
	}
	return c.render(vitalia.OperationShoppingList, struct{ MealsJSON string }{string(meals)})
}

func (c *Codec) PantryAdvicePrompt(p vitalia.Profile, ingredients []string) (vitalia.Prompt, error) {
	return c.render(vitalia.OperationPantryAdvice, planData{Profile: p, Ingredients: ingredients})
}

func (c *Codec) ChatTurnPrompt(p vitalia.Profile, message string) (vitalia.Prompt, error) {
	return c.render(vitalia.OperationChatTurn, struct {
		Profile vitalia.Profile
		Message string
	}{p, message})
}

func (c *Codec) render(name vitalia.Operation, data any) (vitalia.Prompt, error) {
	op, err := c.registry.Operation(name)
	if err != nil {
		return vitalia.Prompt{}, err
	}
	return op.render(data)
}

// DecodePlan parses a plan response. Any shape mismatch, including a plan
// without exactly one meal of each type, is a *vitalia.ValidationError.
func (c *Codec) DecodePlan(text string) (vitalia.DailyPlan, error) {
	var w wirePlan
	if err := c.decodeStructured(vitalia.OperationPlan, text, &w); err != nil {
		return vitalia.DailyPlan{}, err
	}

	plan := w.toDomain()
	if err := plan.Validate(); err != nil {
		return vitalia.DailyPlan{}, &vitalia.ValidationError{Operation: vitalia.OperationPlan, Reason: err.Error()}
	}
	return plan, nil
}

func (c *Codec) DecodeShoppingList(text string) (vitalia.ShoppingList, error) {
	var w wireShoppingList
	if err := c.decodeStructured(vitalia.OperationShoppingList, text, &w); err != nil {
		return vitalia.ShoppingList{}, err
	}
	return w.toDomain(), nil
}

func (c *Codec) decodeStructured(name vitalia.Operation, text string, out any) error {
	op, err := c.registry.Operation(name)
	if err != nil {
		return err
	}

	raw := []byte(text)
	if !json.Valid(raw) && c.lenientJSON {
		obj, ok := extractObject(text)
		if !ok {
			return &vitalia.ValidationError{Operation: name, Reason: "response is not JSON"}
		}
		raw = []byte(obj)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &vitalia.ValidationError{Operation: name, Reason: "response is not JSON", Err: err}
	}

	if err := op.validate(doc); err != nil {
		return &vitalia.ValidationError{Operation: name, Reason: "response does not match schema", Err: err}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &vitalia.ValidationError{Operation: name, Reason: "unexpected value types", Err: err}
	}
	return nil
}
