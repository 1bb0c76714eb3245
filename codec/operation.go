package codec

import (
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"vitalia"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"num": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
}

// Operation describes one kind of AI request: how its prompt is rendered and,
// for structured operations, the JSON shape the response must have.
type Operation struct {
	Name        vitalia.Operation  `json:"name"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Structured  bool               `json:"structured"`
	Schema      *jsonschema.Schema `json:"response_schema,omitempty"`

	template *template.Template
	resolved *jsonschema.Resolved
}

// validate checks a decoded JSON document against the response schema.
// Free-form operations accept anything.
func (o *Operation) validate(doc any) error {
	if o.resolved == nil {
		return nil
	}
	return o.resolved.Validate(doc)
}

func (o *Operation) render(data any) (vitalia.Prompt, error) {
	var b strings.Builder
	if err := o.template.Execute(&b, data); err != nil {
		return vitalia.Prompt{}, fmt.Errorf("failed to render %s prompt: %w", o.Name, err)
	}
	return vitalia.Prompt{
		Operation:  o.Name,
		Text:       strings.TrimSpace(b.String()),
		Structured: o.Structured,
	}, nil
}

// Registry maps operation names to their definitions
type Registry map[vitalia.Operation]*Operation

// NewRegistry parses the embedded prompt templates for the four operations
// and resolves the response schemas of the structured ones.
func NewRegistry() (Registry, error) {
	defs := []struct {
		op       Operation
		filename string
	}{
		{
			op: Operation{
				Name:        vitalia.OperationPlan,
				Title:       "Daily plan",
				Description: "Four meals matching the calorie target, activity level and available ingredients.",
				Structured:  true,
				Schema:      PlanSchema(),
			},
			filename: "plan.tmpl",
		},
		{
			op: Operation{
				Name:        vitalia.OperationShoppingList,
				Title:       "Shopping list",
				Description: "Ingredients of the current plan grouped into Frescos, Proteínas and Despensa.",
				Structured:  true,
				Schema:      ShoppingListSchema(),
			},
			filename: "shopping_list.tmpl",
		},
		{
			op: Operation{
				Name:        vitalia.OperationPantryAdvice,
				Title:       "Pantry advice",
				Description: "Three purchases that complement the pantry for the user's goal. Free-form text.",
			},
			filename: "pantry_advice.tmpl",
		},
		{
			op: Operation{
				Name:        vitalia.OperationChatTurn,
				Title:       "Coach reply",
				Description: "One coach answer to the user's question. Free-form text.",
			},
			filename: "chat_turn.tmpl",
		},
	}

	registry := make(Registry, len(defs))
	for _, d := range defs {
		tmpl, err := template.New(d.filename).Funcs(templateFuncs).ParseFS(promptFS, "prompts/"+d.filename)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", d.filename, err)
		}
		op := d.op
		op.template = tmpl
		if op.Schema != nil {
			if op.resolved, err = op.Schema.Resolve(nil); err != nil {
				return nil, fmt.Errorf("failed to resolve %s response schema: %w", op.Name, err)
			}
		}
		registry[op.Name] = &op
	}

	return registry, nil
}

// Operations returns all operations sorted by name
func (r Registry) Operations() []*Operation {
	ops := make([]*Operation, 0, len(r))
	for _, op := range r {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops
}

// Operation retrieves an operation by name from the registry
func (r Registry) Operation(name vitalia.Operation) (*Operation, error) {
	op, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("operation %q not found in registry", name)
	}
	return op, nil
}
