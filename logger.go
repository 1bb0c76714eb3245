package vitalia

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExchangeLogger records every prompt sent to a completion service and what came back.
type ExchangeLogger interface {
	LogExchange(exchange ExchangeLog) error
}

// NewExchangeLogFilePath returns a file path under dir named after the model,
// so logs produced with different models are easy to tell apart.
func NewExchangeLogFilePath(dir, model string) string {
	name := fmt.Sprintf(
		"%d.%s.json",
		time.Now().Unix(),
		strings.NewReplacer(":", "_", "/", "_").Replace(strings.ToLower(model)),
	)
	return filepath.Join(dir, name)
}

// ExchangeLog is one request/response pair with a completion service.
type ExchangeLog struct {
	ID         uuid.UUID `json:"id"`
	Operation  Operation `json:"operation"`
	Timestamp  time.Time `json:"timestamp"`
	Prompt     string    `json:"prompt"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

func NewExchangeLog(op Operation, prompt string) ExchangeLog {
	return ExchangeLog{
		ID:        uuid.New(),
		Operation: op,
		Timestamp: time.Now(),
		Prompt:    prompt,
	}
}

// FileExchangeLogger accumulates exchanges and writes them all on Flush.
type FileExchangeLogger struct {
	exchanges []ExchangeLog
	writer    io.Writer
}

func NewFileExchangeLogger(writer io.Writer) *FileExchangeLogger {
	return &FileExchangeLogger{
		exchanges: make([]ExchangeLog, 0),
		writer:    writer,
	}
}

// LogExchange buffers the exchange (does not flush immediately)
func (l *FileExchangeLogger) LogExchange(exchange ExchangeLog) error {
	l.exchanges = append(l.exchanges, exchange)
	return nil
}

func (l *FileExchangeLogger) Flush() error {
	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"session": map[string]any{
			"timestamp": time.Now(),
			"exchanges": l.exchanges,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal exchange log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write exchange log: %w", err)
	}

	l.exchanges = l.exchanges[:0]
	return nil
}

type NoOpExchangeLogger struct{}

func NewNoOpExchangeLogger() *NoOpExchangeLogger {
	return &NoOpExchangeLogger{}
}

func (nop *NoOpExchangeLogger) LogExchange(exchange ExchangeLog) error {
	return nil
}

// StdoutExchangeLogger writes each exchange as a JSON line (for Lambda/CloudWatch)
type StdoutExchangeLogger struct {
	out io.Writer
}

func NewStdoutExchangeLogger() *StdoutExchangeLogger {
	return &StdoutExchangeLogger{out: os.Stdout}
}

func (l *StdoutExchangeLogger) LogExchange(exchange ExchangeLog) error {
	data, err := json.Marshal(exchange)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}
