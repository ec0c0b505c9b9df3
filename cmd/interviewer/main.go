// Command interviewer starts the adaptive interview orchestrator:
// HTTP/WebSocket API, background retention cleanup, and the external
// adapter wiring for whichever LLM/STT/TTS/vector providers config
// selects.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/candidflow/interviewer/pkg/adapters/anthropic"
	"github.com/candidflow/interviewer/pkg/adapters/mock"
	"github.com/candidflow/interviewer/pkg/adapters/openai"
	"github.com/candidflow/interviewer/pkg/adapters/planstub"
	"github.com/candidflow/interviewer/pkg/adapters/vector"
	"github.com/candidflow/interviewer/pkg/api"
	"github.com/candidflow/interviewer/pkg/cleanup"
	"github.com/candidflow/interviewer/pkg/completion"
	"github.com/candidflow/interviewer/pkg/config"
	"github.com/candidflow/interviewer/pkg/database"
	"github.com/candidflow/interviewer/pkg/followup"
	"github.com/candidflow/interviewer/pkg/masking"
	"github.com/candidflow/interviewer/pkg/orchestrator"
	"github.com/candidflow/interviewer/pkg/pipeline"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/candidflow/interviewer/pkg/repository/postgres"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	maskingSvc := masking.NewService(cfg.Masking)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: maskingSvc.ReplaceAttr,
	})))

	dbClient, err := database.NewClient(ctx, database.Config{
		DSN:            cfg.Database.DSN,
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer dbClient.Close()
	slog.Info("connected to postgres")

	llmPort, sttPort, ttsPort, vectorPort, planPort, err := wireAdapters(cfg, dbClient)
	if err != nil {
		log.Fatalf("failed to wire adapters: %v", err)
	}

	interviews := postgres.NewInterviewRepository(dbClient.Pool)
	questions := postgres.NewQuestionRepository(dbClient.Pool)
	followUps := postgres.NewFollowUpRepository(dbClient.Pool)
	answers := postgres.NewAnswerRepository(dbClient.Pool)
	evaluations := postgres.NewEvaluationRepository(dbClient.Pool)
	transactor := postgres.NewTransactor(dbClient.Pool)

	pipe := pipeline.New(llmPort, sttPort, vectorPort, pipeline.Timeouts{
		STT:    cfg.Timeouts.STT,
		LLM:    cfg.Timeouts.LLM,
		Vector: cfg.Timeouts.Vector,
	})

	orchDeps := orchestrator.Deps{
		Interviews:  interviews,
		Questions:   questions,
		FollowUps:   followUps,
		Answers:     answers,
		Evaluations: evaluations,
		Transactor:  transactor,
		Pipeline:    pipe,
		LLM:         llmPort,
		TTS:         ttsPort,
		Completion: completion.New(llmPort, completion.Config{
			TheoreticalWeight:         cfg.Scoring.TheoreticalWeight,
			SpeakingWeight:            cfg.Scoring.SpeakingWeight,
			SpeakingDefaultWhenAbsent: cfg.Scoring.SpeakingDefaultWhenAbsent,
		}),
		FollowUpCfg: followup.Config{
			SimilarityQualityThreshold: cfg.FollowUp.SimilarityQualityThreshold,
			MaxFollowupsPerInterview:   cfg.FollowUp.MaxFollowupsPerInterview,
		},
	}

	cleanupSvc := cleanup.NewService(cfg.Retention, interviews)
	cleanupSvc.Start(ctx)
	defer cleanupSvc.Stop()

	server := api.NewServer(cfg, dbClient, orchDeps, questions, planPort)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.LLM)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("error shutting down HTTP server", "error", err)
		}
	}()

	slog.Info("starting interviewer", "listen_addr", cfg.Server.ListenAddr)
	if err := server.Start(cfg.Server.ListenAddr); err != nil && ctx.Err() == nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}

// wireAdapters constructs the LLM/STT/TTS/vector/question-plan
// collaborators per config. providers.use_mock_adapters selects the
// deterministic, dependency-free pkg/adapters/mock bundle alongside an
// unseeded planstub.Stub, for local development without provider keys.
func wireAdapters(cfg *config.Config, dbClient *database.Client) (
	ports.LLMPort, ports.STTPort, ports.TTSPort, ports.VectorPort, ports.QuestionPlanPort, error,
) {
	if cfg.Providers.UseMockAdapters {
		m := mock.New()
		return m, m, m, m, planstub.New(), nil
	}

	openaiClient, err := openai.New(openai.Config{
		APIKey: os.Getenv(cfg.Providers.OpenAIAPIKeyEnv),
		Model:  cfg.Providers.LLMModel,
	})
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	var llmPort ports.LLMPort = openaiClient
	if cfg.Providers.LLMProvider == "anthropic" {
		anthropicClient, err := anthropic.New(anthropic.Config{
			APIKey: os.Getenv(cfg.Providers.AnthropicAPIKeyEnv),
			Model:  cfg.Providers.LLMModel,
		})
		if err != nil {
			return nil, nil, nil, nil, nil, err
		}
		llmPort = anthropicClient
	}

	vectorAdapter, err := vector.New(vector.Config{
		APIKey: os.Getenv(cfg.Providers.OpenAIAPIKeyEnv),
	}, dbClient.Pool)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	return llmPort, openaiClient, openaiClient, vectorAdapter, planstub.New(), nil
}
