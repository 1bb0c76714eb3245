package codec

import (
	"encoding/json"
	"fmt"
	"strconv"

	"vitalia"
)

// displayText accepts a JSON string or number and keeps it as text.
type displayText string

func (d *displayText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*d = displayText(s)
		return nil
	}

	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(b))
	}
	*d = displayText(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

type wireMeal struct {
	Tipo                string   `json:"tipo"`
	Nombre              string   `json:"nombre"`
	Kcal                float64  `json:"kcal"`
	Tiempo              string   `json:"tiempo"`
	Ingredientes        []string `json:"ingredientes"`
	Pasos               []string `json:"pasos"`
	BeneficioEspecifico string   `json:"beneficio_especifico"`
}

type wireMacros struct {
	Kcal      float64     `json:"kcal"`
	Proteinas displayText `json:"proteinas"`
	Carbs     displayText `json:"carbs"`
	Grasas    displayText `json:"grasas"`
}

type wirePlan struct {
	PlanDiario struct {
		ResumenDia    string     `json:"resumen_dia"`
		MacrosTotales wireMacros `json:"macros_totales"`
		Comidas       []wireMeal `json:"comidas"`
	} `json:"plan_diario"`
}

type wireCategory struct {
	Nombre string   `json:"nombre"`
	Items  []string `json:"items"`
}

type wireShoppingList struct {
	Categorias []wireCategory `json:"categorias"`
}

func (w wirePlan) toDomain() vitalia.DailyPlan {
	p := w.PlanDiario
	plan := vitalia.DailyPlan{
		Summary: p.ResumenDia,
		Macros: vitalia.Macros{
			Kcal:    p.MacrosTotales.Kcal,
			Protein: string(p.MacrosTotales.Proteinas),
			Carbs:   string(p.MacrosTotales.Carbs),
			Fat:     string(p.MacrosTotales.Grasas),
		},
		Meals: make([]vitalia.Meal, 0, len(p.Comidas)),
	}
	for _, m := range p.Comidas {
		plan.Meals = append(plan.Meals, vitalia.Meal{
			Type:        vitalia.MealType(m.Tipo),
			Name:        m.Nombre,
			Kcal:        m.Kcal,
			PrepTime:    m.Tiempo,
			Ingredients: m.Ingredientes,
			Steps:       m.Pasos,
			Benefit:     m.BeneficioEspecifico,
		})
	}
	return plan
}

// mealsToWire renders plan meals with the keys the service produced them with.
func mealsToWire(meals []vitalia.Meal) []wireMeal {
	out := make([]wireMeal, 0, len(meals))
	for _, m := range meals {
		out = append(out, wireMeal{
			Tipo:                string(m.Type),
			Nombre:              m.Name,
			Kcal:                m.Kcal,
			Tiempo:              m.PrepTime,
			Ingredientes:        m.Ingredients,
			Pasos:               m.Steps,
			BeneficioEspecifico: m.Benefit,
		})
	}
	return out
}

func (w wireShoppingList) toDomain() vitalia.ShoppingList {
	list := vitalia.ShoppingList{Categories: make([]vitalia.Category, 0, len(w.Categorias))}
	for _, c := range w.Categorias {
		list.Categories = append(list.Categories, vitalia.Category{Name: c.Nombre, Items: c.Items})
	}
	return list
}
