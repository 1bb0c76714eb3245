// Package mock is a deterministic Generator for local development and tests.
// It never makes network calls.
package mock

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"vitalia"
)

//go:embed responses/*
var responses embed.FS

var responseFiles = map[vitalia.Operation]string{
	vitalia.OperationPlan:         "responses/plan.json",
	vitalia.OperationShoppingList: "responses/shopping_list.json",
	vitalia.OperationPantryAdvice: "responses/pantry_advice.txt",
	vitalia.OperationChatTurn:     "responses/chat_turn.txt",
}

// Client answers every operation with a canned response. Overrides and
// errors can be set per operation.
type Client struct {
	mu        sync.Mutex
	canned    map[vitalia.Operation]string
	overrides map[vitalia.Operation]string
	errs      map[vitalia.Operation]error
	prompts   []vitalia.Prompt
}

func NewClient() (*Client, error) {
	canned := make(map[vitalia.Operation]string, len(responseFiles))
	for op, name := range responseFiles {
		data, err := responses.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read canned response for %s: %w", op, err)
		}
		canned[op] = strings.TrimSpace(string(data))
	}

	return &Client{
		canned:    canned,
		overrides: make(map[vitalia.Operation]string),
		errs:      make(map[vitalia.Operation]error),
	}, nil
}

func (c *Client) SetResponse(op vitalia.Operation, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[op] = text
}

func (c *Client) SetError(op vitalia.Operation, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[op] = err
}

// Prompts returns every prompt received so far.
func (c *Client) Prompts() []vitalia.Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]vitalia.Prompt(nil), c.prompts...)
}

func (c *Client) Generate(ctx context.Context, prompt vitalia.Prompt) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "model", "mock", "operation", prompt.Operation)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)

	if err, ok := c.errs[prompt.Operation]; ok {
		return "", err
	}
	if text, ok := c.overrides[prompt.Operation]; ok {
		return text, nil
	}
	if text, ok := c.canned[prompt.Operation]; ok {
		return text, nil
	}
	return "", fmt.Errorf("mock: no response for operation %q", prompt.Operation)
}
