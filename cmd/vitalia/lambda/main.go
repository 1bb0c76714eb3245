package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"vitalia"
	"vitalia/codec"
	"vitalia/coordinator"
	"vitalia/provider"
	"vitalia/storage"
)

// Params selects the operation. Ingredients are added after the S3 pantry.
type Params struct {
	Operation   string           `json:"operation"`
	Profile     *vitalia.Profile `json:"profile,omitempty"`
	Ingredients []string         `json:"ingredients,omitempty"`
	Message     string           `json:"message,omitempty"`
}

type Results struct {
	State coordinator.State `json:"state"`
	Error string            `json:"error,omitempty"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
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
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		ctx, span := tracerProvider.Tracer(vitalia.TracerNameLambda).Start(ctx, vitalia.TracerNameLambda)
		defer span.End()

		gen, closeGen, err := provider.New(ctx, providerConfig, retryConfig, nil)
		if err != nil {
			return Results{}, err
		}
		defer closeGen()

		cd, err := codec.New(codec.WithLenientJSON(provider.LenientJSON(providerConfig.Name)))
		if err != nil {
			return Results{}, err
		}

		coord, err := coordinator.New(gen, cd, vitalia.NewStdoutExchangeLogger(),
			tracerProvider.Tracer(vitalia.TracerNameCoordinator),
			meterProvider.Meter(vitalia.TracerNameCoordinator))
		if err != nil {
			return Results{}, err
		}

		session := coordinator.NewSession(coord)
		if params.Profile != nil {
			if _, err := session.UpdateProfile(*params.Profile); err != nil {
				return Results{}, err
			}
		}

		if appConfig.ArtifactsS3Bucket != "" && appConfig.ArtifactsPantryS3Key != "" {
			awsCfg, err := config.LoadDefaultConfig(ctx)
			if err != nil {
				return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
			}
			ps := storage.NewS3PantryState(s3.NewFromConfig(awsCfg), appConfig.ArtifactsS3Bucket, appConfig.ArtifactsPantryS3Key)
			names, err := storage.LoadIngredients(ctx, ps)
			if err != nil {
				slog.Error("SETUP: Failed to load pantry data from S3", "error", err)
				return Results{}, err
			}
			for _, n := range names {
				session.AddIngredient(n)
			}
			slog.Info("SETUP: Pantry data loaded from S3", "ingredients_count", len(names))
		}
		for _, n := range params.Ingredients {
			session.AddIngredient(n)
		}

		var st coordinator.State
		switch vitalia.Operation(params.Operation) {
		case vitalia.OperationPlan:
			st, err = session.GeneratePlan(ctx)
		case vitalia.OperationShoppingList:
			if st, err = session.GeneratePlan(ctx); err == nil {
				st, err = session.GenerateShoppingList(ctx)
			}
		case vitalia.OperationPantryAdvice:
			st = session.AnalyzePantry(ctx)
		case vitalia.OperationChatTurn:
			st = session.SendTurn(ctx, params.Message)
		default:
			return Results{}, fmt.Errorf("unknown operation %q", params.Operation)
		}

		if err != nil {
			slog.Error("RESULT: Operation failed", "operation", params.Operation, "error", err)
			return Results{State: st, Error: st.Error}, nil
		}
		return Results{State: st}, nil
	}

	lambda.Start(fn)
}
