package vitalia

import (
	"context"
	"fmt"
	"net/http"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// Generator sends one prompt to a completion service and returns the raw text
// of the first candidate. Structured prompts return JSON text left for the codec to decode.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Operation names one kind of AI request.
type Operation string

const (
	OperationPlan         Operation = "plan"
	OperationShoppingList Operation = "shoppingList"
	OperationPantryAdvice Operation = "pantryAdvice"
	OperationChatTurn     Operation = "chatTurn"
)

// Prompt is a fully rendered request for one operation. Structured prompts ask
// the service for a JSON response body.
type Prompt struct {
	Operation  Operation `json:"operation"`
	Text       string    `json:"text"`
	Structured bool      `json:"structured"`
}

type MealType string

const (
	MealBreakfast MealType = "Desayuno"
	MealLunch     MealType = "Comida"
	MealSnack     MealType = "Snack"
	MealDinner    MealType = "Cena"
)

// MealTypes lists the meal slots every daily plan must fill, in display order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealSnack, MealDinner}

// Macros holds the plan totals. Kcal is numeric; the remaining values are
// display text exactly as the service produced them.
type Macros struct {
	Kcal    float64 `json:"kcal"`
	Protein string  `json:"protein"`
	Carbs   string  `json:"carbs"`
	Fat     string  `json:"fat"`
}

type Meal struct {
	Type        MealType `json:"type"`
	Name        string   `json:"name"`
	Kcal        float64  `json:"kcal"`
	PrepTime    string   `json:"prep_time"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Benefit     string   `json:"benefit"`
}

// DailyPlan is replaced as a whole on every successful regeneration.
type DailyPlan struct {
	Summary string `json:"summary"`
	Macros  Macros `json:"macros"`
	Meals   []Meal `json:"meals"`
}

// Validate checks that the plan has exactly one meal for each of the four meal types.
func (p *DailyPlan) Validate() error {
	if len(p.Meals) != len(MealTypes) {
		return fmt.Errorf("expected %d meals, got %d", len(MealTypes), len(p.Meals))
	}

	seen := make(map[MealType]bool, len(MealTypes))
	for _, m := range p.Meals {
		if seen[m.Type] {
			return fmt.Errorf("duplicate meal type %q", m.Type)
		}
		seen[m.Type] = true
	}

	for _, mt := range MealTypes {
		if !seen[mt] {
			return fmt.Errorf("missing meal type %q", mt)
		}
	}

	return nil
}

// Clone returns a deep copy so snapshots never share slices with session state.
func (p *DailyPlan) Clone() *DailyPlan {
	if p == nil {
		return nil
	}
	out := &DailyPlan{Summary: p.Summary, Macros: p.Macros, Meals: make([]Meal, len(p.Meals))}
	for i, m := range p.Meals {
		m.Ingredients = append([]string(nil), m.Ingredients...)
		m.Steps = append([]string(nil), m.Steps...)
		out.Meals[i] = m
	}
	return out
}

type Category struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// ShoppingList is derived from one DailyPlan and cleared whenever that plan is replaced.
type ShoppingList struct {
	Categories []Category `json:"categories"`
}

func (s *ShoppingList) Clone() *ShoppingList {
	if s == nil {
		return nil
	}
	out := &ShoppingList{Categories: make([]Category, len(s.Categories))}
	for i, c := range s.Categories {
		out.Categories[i] = Category{Name: c.Name, Items: append([]string(nil), c.Items...)}
	}
	return out
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Greeting seeds every new transcript.
const Greeting = "¡Hola! Soy tu coach VitalIA. He actualizado mis algoritmos para considerar tu nivel de actividad física en cada receta. ¿En qué puedo ayudarte?"

// Transcript is an append-only conversation. Append never mutates the receiver.
type Transcript []Message

func NewTranscript() Transcript {
	return Transcript{{Role: RoleAssistant, Text: Greeting}}
}

func (t Transcript) Append(msgs ...Message) Transcript {
	out := make(Transcript, 0, len(t)+len(msgs))
	out = append(out, t...)
	return append(out, msgs...)
}
