package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vitalia"
	"vitalia/codec"
	"vitalia/coordinator"
	"vitalia/provider"
	"vitalia/slack"
	"vitalia/storage"
)

const usage = `usage: vitalia [flags] <command> [message]

commands:
  target    print the daily calorie target and timeline
  plan      generate a daily plan from the pantry
  shopping  generate a plan and its shopping list
  pantry    analyze the pantry
  chat      send one message to the coach

flags:
`

func main() {
	debug := flag.Bool("debug", false, "dump the final session state")
	ingredients := flag.String("ingredients", "", "comma separated ingredients added to the pantry")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("SETUP: No .env file loaded", "error", err)
	}

	if err := run(context.Background(), flag.Arg(0), strings.Join(flag.Args()[1:], " "), *ingredients, *debug); err != nil {
		slog.Error("RESULT: Command failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command, message, extraIngredients string, debug bool) error {
	var providerConfig vitalia.ProviderConfig
	if err := envdecode.Decode(&providerConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var retryConfig vitalia.RetryConfig
	if err := envdecode.Decode(&retryConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var appConfig vitalia.AppConfig
	if err := envdecode.Decode(&appConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	tracerProvider, meterProvider, otelShutdown, err := vitalia.InitOtel(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	ctx, span := tracerProvider.Tracer(vitalia.TracerNameCLI).Start(ctx, vitalia.TracerNameCLI, trace.WithAttributes(
		attribute.String("command", command),
		attribute.String("provider", providerConfig.Name),
		attribute.String("model.id", providerConfig.ModelID),
	))
	defer span.End()

	logger, cleanup, err := newExchangeLogger(appConfig.ExchangeLogDir, providerConfig.ModelID)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush exchange log", "error", err)
		}
	}()

	gen, closeGen, err := provider.New(ctx, providerConfig, retryConfig, nil)
	if err != nil {
		return err
	}
	defer closeGen()

	cd, err := codec.New(codec.WithLenientJSON(provider.LenientJSON(providerConfig.Name)))
	if err != nil {
		return err
	}

	coord, err := coordinator.New(gen, cd, logger,
		tracerProvider.Tracer(vitalia.TracerNameCoordinator),
		meterProvider.Meter(vitalia.TracerNameCoordinator))
	if err != nil {
		return err
	}

	session := coordinator.NewSession(coord)
	if err := seedPantry(ctx, session, appConfig.ArtifactsPantryPath, extraIngredients); err != nil {
		return err
	}

	st, err := runCommand(ctx, session, command, message)
	if debug {
		vitalia.Dump(os.Stderr, st)
	}
	if err != nil {
		return err
	}

	if st.Plan != nil && appConfig.SlackWebhookURL != "" {
		client := slack.NewClient(appConfig.SlackWebhookURL, http.DefaultClient)
		if err := slack.PostPlan(ctx, client, appConfig.SlackChannel, *st.Plan, st.DailyTarget); err != nil {
			slog.Error("RESULT: Failed to post plan to Slack", "error", err)
		}
	}
	return nil
}

func runCommand(ctx context.Context, session *coordinator.Session, command, message string) (coordinator.State, error) {
	switch command {
	case "target":
		st := session.Snapshot()
		fmt.Printf("Objetivo diario: %d kcal\nTiempo estimado: %s\n", st.DailyTarget, st.Timeline.Label)
		return st, nil

	case "plan":
		st, err := session.GeneratePlan(ctx)
		if err != nil {
			return st, userError(st, err)
		}
		printPlan(st)
		return st, nil

	case "shopping":
		st, err := session.GeneratePlan(ctx)
		if err != nil {
			return st, userError(st, err)
		}
		st, err = session.GenerateShoppingList(ctx)
		if err != nil {
			return st, userError(st, err)
		}
		printPlan(st)
		for _, c := range st.ShoppingList.Categories {
			fmt.Printf("\n%s\n", c.Name)
			for _, item := range c.Items {
				fmt.Printf("  - %s\n", item)
			}
		}
		return st, nil

	case "pantry":
		st := session.AnalyzePantry(ctx)
		if st.PantryAnalysis == "" {
			return st, errors.New("no pantry analysis available")
		}
		fmt.Println(st.PantryAnalysis)
		return st, nil

	case "chat":
		st := session.SendTurn(ctx, message)
		if last := st.Transcript[len(st.Transcript)-1]; last.Role == vitalia.RoleAssistant {
			fmt.Println(last.Text)
		}
		return st, nil
	}

	return session.Snapshot(), fmt.Errorf("unknown command %q", command)
}

// userError prints the display message and keeps err for the exit status.
func userError(st coordinator.State, err error) error {
	if st.Error != "" {
		fmt.Fprintln(os.Stderr, st.Error)
	}
	return err
}

func printPlan(st coordinator.State) {
	p := st.Plan
	fmt.Printf("Objetivo diario: %d kcal | %s\n\n%s\n", st.DailyTarget, st.Timeline.Label, p.Summary)
	fmt.Printf("Macros: %.0f kcal | P %s | C %s | G %s\n", p.Macros.Kcal, p.Macros.Protein, p.Macros.Carbs, p.Macros.Fat)
	for _, m := range p.Meals {
		fmt.Printf("\n%s: %s (%.0f kcal, %s)\n", m.Type, m.Name, m.Kcal, m.PrepTime)
		for i, step := range m.Steps {
			fmt.Printf("  %d. %s\n", i+1, step)
		}
		fmt.Printf("  %s\n", m.Benefit)
	}
}

func seedPantry(ctx context.Context, session *coordinator.Session, path, extra string) error {
	if path != "" {
		names, err := storage.LoadIngredients(ctx, storage.NewFilePantryState(path))
		if err != nil {
			return err
		}
		for _, n := range names {
			session.AddIngredient(n)
		}
		slog.Info("SETUP: Pantry loaded", "path", path, "ingredients_count", len(names))
	}

	for _, n := range strings.Split(extra, ",") {
		session.AddIngredient(n)
	}
	return nil
}

func newExchangeLogger(dir, modelID string) (vitalia.ExchangeLogger, func() error, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(vitalia.NewExchangeLogFilePath(dir, modelID), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := vitalia.NewFileExchangeLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
