// Package coordinator turns user state into AI requests and applies the
// results to a single session.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"vitalia"
	"vitalia/codec"
	"vitalia/metabolic"
)

type instruments struct {
	operations       metric.Int64Counter
	failedOperations metric.Int64Counter
	duration         metric.Float64Histogram
	promptSize       metric.Int64Histogram
}

func newInstruments(meter metric.Meter) (instruments, error) {
	var ins instruments
	var err, errs error

	ins.operations, err = meter.Int64Counter("vitalia_operations_total",
		metric.WithDescription("Total number of AI operations started"))
	errs = errors.Join(errs, err)

	ins.failedOperations, err = meter.Int64Counter("vitalia_operations_failed_total",
		metric.WithDescription("Total number of AI operations that failed"))
	errs = errors.Join(errs, err)

	ins.duration, err = meter.Float64Histogram("vitalia_operation_duration_seconds",
		metric.WithDescription("Duration of AI operations in seconds"),
		metric.WithUnit("s"))
	errs = errors.Join(errs, err)

	ins.promptSize, err = meter.Int64Histogram("vitalia_prompt_size_bytes",
		metric.WithDescription("Size of the prompt sent to the completion service in bytes"),
		metric.WithUnit("By"))
	errs = errors.Join(errs, err)

	if errs != nil {
		return instruments{}, fmt.Errorf("failed to create instruments: %w", errs)
	}
	return ins, nil
}

// Coordinator runs the four AI operations. It holds no user state; every
// call takes the inputs it needs and returns a typed result.
type Coordinator struct {
	gen    vitalia.Generator
	codec  *codec.Codec
	logger vitalia.ExchangeLogger
	tracer trace.Tracer
	ins    instruments
}

func New(gen vitalia.Generator, cd *codec.Codec, logger vitalia.ExchangeLogger, tracer trace.Tracer, meter metric.Meter) (*Coordinator, error) {
	if logger == nil {
		logger = vitalia.NewNoOpExchangeLogger()
	}

	ins, err := newInstruments(meter)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		gen:    gen,
		codec:  cd,
		logger: logger,
		tracer: tracer,
		ins:    ins,
	}, nil
}

// GeneratePlan fails with vitalia.ErrEmptyPantry before any request when
// ingredients is empty.
func (c *Coordinator) GeneratePlan(ctx context.Context, p vitalia.Profile, ingredients []string) (plan vitalia.DailyPlan, err error) {
	ctx, finish := c.start(ctx, vitalia.OperationPlan)
	defer func() { finish(err) }()

	if len(ingredients) == 0 {
		return vitalia.DailyPlan{}, vitalia.ErrEmptyPantry
	}

	target := metabolic.DailyTarget(p)
	slog.Info("COORDINATOR: Generating plan", "daily_target", target, "ingredients", len(ingredients))

	prompt, err := c.codec.PlanPrompt(p, target, ingredients)
	if err != nil {
		return vitalia.DailyPlan{}, fmt.Errorf("failed to build plan prompt: %w", err)
	}

	text, err := c.call(ctx, prompt)
	if err != nil {
		return vitalia.DailyPlan{}, err
	}

	plan, err = c.codec.DecodePlan(text)
	if err != nil {
		return vitalia.DailyPlan{}, err
	}

	slog.Info("COORDINATOR: Plan generated", "meals", len(plan.Meals), "kcal", plan.Macros.Kcal)
	return plan, nil
}

func (c *Coordinator) GenerateShoppingList(ctx context.Context, plan vitalia.DailyPlan) (list vitalia.ShoppingList, err error) {
	ctx, finish := c.start(ctx, vitalia.OperationShoppingList)
	defer func() { finish(err) }()

	prompt, err := c.codec.ShoppingListPrompt(plan)
	if err != nil {
		return vitalia.ShoppingList{}, fmt.Errorf("failed to build shopping list prompt: %w", err)
	}

	text, err := c.call(ctx, prompt)
	if err != nil {
		return vitalia.ShoppingList{}, err
	}

	list, err = c.codec.DecodeShoppingList(text)
	if err != nil {
		return vitalia.ShoppingList{}, err
	}

	slog.Info("COORDINATOR: Shopping list generated", "categories", len(list.Categories))
	return list, nil
}

// AnalyzePantry returns free text. The response is not validated.
func (c *Coordinator) AnalyzePantry(ctx context.Context, p vitalia.Profile, ingredients []string) (advice string, err error) {
	ctx, finish := c.start(ctx, vitalia.OperationPantryAdvice)
	defer func() { finish(err) }()

	if len(ingredients) == 0 {
		return "", vitalia.ErrEmptyPantry
	}

	prompt, err := c.codec.PantryAdvicePrompt(p, ingredients)
	if err != nil {
		return "", fmt.Errorf("failed to build pantry advice prompt: %w", err)
	}

	return c.call(ctx, prompt)
}

// Reply answers one chat message in the context of the profile.
func (c *Coordinator) Reply(ctx context.Context, p vitalia.Profile, message string) (reply string, err error) {
	ctx, finish := c.start(ctx, vitalia.OperationChatTurn)
	defer func() { finish(err) }()

	prompt, err := c.codec.ChatTurnPrompt(p, message)
	if err != nil {
		return "", fmt.Errorf("failed to build chat prompt: %w", err)
	}

	return c.call(ctx, prompt)
}

// start opens the operation span. The returned func records the outcome and
// ends the span.
func (c *Coordinator) start(ctx context.Context, op vitalia.Operation) (context.Context, func(error)) {
	ctx, span := c.tracer.Start(ctx, "Coordinator."+operationSpanName(op),
		trace.WithAttributes(attribute.String("operation", string(op))))
	opAttr := attribute.String("operation", string(op))
	c.ins.operations.Add(ctx, 1, metric.WithAttributes(opAttr))
	started := time.Now()

	return ctx, func(err error) {
		defer span.End()
		c.ins.duration.Record(ctx, time.Since(started).Seconds(), metric.WithAttributes(opAttr))

		if err == nil {
			span.SetStatus(codes.Ok, "")
			return
		}

		kind := errorType(err)
		c.ins.failedOperations.Add(ctx, 1, metric.WithAttributes(opAttr, attribute.String("error_type", kind)))
		span.SetStatus(codes.Error, string(op)+" failed")
		span.RecordError(err)
		slog.Error("COORDINATOR: Operation failed", "operation", op, "error_type", kind, "error", err)
	}
}

// call sends one prompt and records the exchange.
func (c *Coordinator) call(ctx context.Context, prompt vitalia.Prompt) (string, error) {
	span := trace.SpanFromContext(ctx)
	size := len(prompt.Text)

	c.ins.promptSize.Record(ctx, int64(size),
		metric.WithAttributes(attribute.String("operation", string(prompt.Operation))))
	span.AddEvent("Sending prompt", trace.WithAttributes(
		attribute.Int("prompt_size_bytes", size),
		attribute.Bool("structured", prompt.Structured),
	))

	exchange := vitalia.NewExchangeLog(prompt.Operation, prompt.Text)
	started := time.Now()
	text, err := c.gen.Generate(ctx, prompt)
	exchange.DurationMS = time.Since(started).Milliseconds()
	exchange.Output = text
	if err != nil {
		exchange.Error = err.Error()
	}
	if lerr := c.logger.LogExchange(exchange); lerr != nil {
		slog.Warn("COORDINATOR: Failed to log exchange", "error", lerr)
	}

	if err != nil {
		return "", err
	}

	span.AddEvent("Response received", trace.WithAttributes(
		attribute.Int("response_size_bytes", len(text)),
		attribute.Int64("duration_ms", exchange.DurationMS),
	))
	return text, nil
}

func operationSpanName(op vitalia.Operation) string {
	switch op {
	case vitalia.OperationPlan:
		return "GeneratePlan"
	case vitalia.OperationShoppingList:
		return "GenerateShoppingList"
	case vitalia.OperationPantryAdvice:
		return "AnalyzePantry"
	case vitalia.OperationChatTurn:
		return "Reply"
	}
	return string(op)
}

// errorType classifies err for the failure counter.
func errorType(err error) string {
	var verr *vitalia.ValidationError
	var rerr *vitalia.RequestError

	switch {
	case errors.Is(err, vitalia.ErrEmptyPantry):
		return "empty_pantry"
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &rerr):
		return "request"
	default:
		return "internal"
	}
}
