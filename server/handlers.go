package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"vitalia"
)

type ingredientRequest struct {
	Name string `json:"name" validate:"required"`
}

type chatRequest struct {
	Message string `json:"message" validate:"required"`
}

type chatOpenRequest struct {
	Open bool `json:"open"`
}

// bind parses the JSON body into v and validates its tags.
func (s *Server) bind(ctx *fiber.Ctx, v any) error {
	if err := ctx.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fiber.NewError(fiber.StatusBadRequest, "invalid request: "+strings.Join(fields, ", "))
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func (s *Server) getState(ctx *fiber.Ctx) error {
	return ctx.JSON(s.session.Snapshot())
}

func (s *Server) updateProfile(ctx *fiber.Ctx) error {
	var p vitalia.Profile
	if err := ctx.BodyParser(&p); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	st, err := s.session.UpdateProfile(p)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.JSON(st)
}

func (s *Server) addIngredient(ctx *fiber.Ctx) error {
	var req ingredientRequest
	if err := s.bind(ctx, &req); err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(s.session.AddIngredient(req.Name))
}

func (s *Server) removeIngredient(ctx *fiber.Ctx) error {
	i, err := ctx.ParamsInt("index")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "index must be an integer")
	}
	return ctx.JSON(s.session.RemoveIngredient(i))
}

func (s *Server) generatePlan(ctx *fiber.Ctx) error {
	st, err := s.session.GeneratePlan(ctx.UserContext())
	switch {
	case errors.Is(err, vitalia.ErrEmptyPantry):
		return fiber.NewError(fiber.StatusUnprocessableEntity, st.Error)
	case err != nil:
		return fiber.NewError(fiber.StatusBadGateway, st.Error)
	}
	return ctx.JSON(st)
}

func (s *Server) generateShoppingList(ctx *fiber.Ctx) error {
	st, err := s.session.GenerateShoppingList(ctx.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, st.Error)
	}
	return ctx.JSON(st)
}

func (s *Server) analyzePantry(ctx *fiber.Ctx) error {
	return ctx.JSON(s.session.AnalyzePantry(ctx.UserContext()))
}

func (s *Server) sendTurn(ctx *fiber.Ctx) error {
	var req chatRequest
	if err := s.bind(ctx, &req); err != nil {
		return err
	}
	return ctx.JSON(s.session.SendTurn(ctx.UserContext(), req.Message))
}

func (s *Server) setChatOpen(ctx *fiber.Ctx) error {
	var req chatOpenRequest
	if err := s.bind(ctx, &req); err != nil {
		return err
	}
	return ctx.JSON(s.session.SetChatOpen(req.Open))
}

func (s *Server) listOperations(ctx *fiber.Ctx) error {
	return ctx.JSON(s.registry.Operations())
}
