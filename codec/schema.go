package codec

import "github.com/modelcontextprotocol/go-sdk/jsonschema"

// PlanSchema is the response shape of the plan operation.
func PlanSchema() *jsonschema.Schema {
	minKcal := 0.0
	str := func() *jsonschema.Schema { return &jsonschema.Schema{Type: "string"} }
	display := func(desc string) *jsonschema.Schema {
		return &jsonschema.Schema{Types: []string{"string", "number"}, Description: desc}
	}
	strList := func() *jsonschema.Schema { return &jsonschema.Schema{Type: "array", Items: str()} }

	meal := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"tipo":                 {Type: "string", Description: "Desayuno, Comida, Snack or Cena"},
			"nombre":               str(),
			"kcal":                 {Type: "number", Minimum: &minKcal},
			"tiempo":               str(),
			"ingredientes":         strList(),
			"pasos":                strList(),
			"beneficio_especifico": str(),
		},
		Required: []string{"tipo", "nombre", "kcal", "tiempo", "ingredientes", "pasos", "beneficio_especifico"},
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"plan_diario": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"resumen_dia": str(),
					"macros_totales": {
						Type: "object",
						Properties: map[string]*jsonschema.Schema{
							"kcal": {Type: "number", Minimum: &minKcal},
							// display values, either "120g" or 120
							"proteinas": display("protein total"),
							"carbs":     display("carbohydrate total"),
							"grasas":    display("fat total"),
						},
						Required: []string{"kcal", "proteinas", "carbs", "grasas"},
					},
					"comidas": {Type: "array", Items: meal},
				},
				Required: []string{"resumen_dia", "macros_totales", "comidas"},
			},
		},
		Required: []string{"plan_diario"},
	}
}

// ShoppingListSchema is the response shape of the shoppingList operation.
func ShoppingListSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"categorias": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"nombre": {Type: "string"},
						"items":  {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
					},
					Required: []string{"nombre", "items"},
				},
			},
		},
		Required: []string{"categorias"},
	}
}
