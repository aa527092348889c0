package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/claims-triage/internal/config"
	"github.com/kirillkom/claims-triage/internal/core/ports"
	"github.com/kirillkom/claims-triage/internal/core/triage"
	"github.com/kirillkom/claims-triage/internal/core/usecase"
	"github.com/kirillkom/claims-triage/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/claims-triage/internal/infrastructure/extractor/document"
	"github.com/kirillkom/claims-triage/internal/infrastructure/llm/extraction"
	"github.com/kirillkom/claims-triage/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/claims-triage/internal/infrastructure/llm/openaicompat"
	"github.com/kirillkom/claims-triage/internal/infrastructure/queue/nats"
	"github.com/kirillkom/claims-triage/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/claims-triage/internal/infrastructure/resilience"
	"github.com/kirillkom/claims-triage/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config
	Rules  triage.Rules

	Queue       *nats.Queue
	ProcessUC   *usecase.ProcessClaimUseCase
	IntakeUC    *usecase.SubmissionIntakeUseCase
	SubmitUC    *usecase.ProcessSubmissionUseCase
	ClaimSvc    *usecase.ClaimService
	ExportUC    *usecase.ExportClaimsUseCase
	Submissions ports.SubmissionReader

	closeFn func()
}

// Options carries the per-binary pieces: the API and the worker report to
// different metric registries.
type Options struct {
	Logger   *slog.Logger
	Observer ports.PipelineObserver
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	rules, err := config.LoadRules(cfg.TriageRulesPath)
	if err != nil {
		return nil, fmt.Errorf("load triage rules: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	claimRepo := postgres.NewClaimRepository(db)
	submissionRepo := postgres.NewSubmissionRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		HandlerTimeout:     cfg.WorkerHandlerTimeout,
		ResilienceExecutor: resilience.NewExecutor(cfg.Resilience(), opts.Logger),
		Logger:             opts.Logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	processUC, err := NewClaimPipeline(cfg, rules, claimRepo, opts)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}
	intakeUC := usecase.NewSubmissionIntakeUseCase(submissionRepo, storage, queue, cfg.MaxUploadBytes, opts.Logger)

	return &App{
		Config: cfg,
		Rules:  rules,

		Queue:       queue,
		ProcessUC:   processUC,
		IntakeUC:    intakeUC,
		SubmitUC:    usecase.NewProcessSubmissionUseCase(submissionRepo, storage, processUC, opts.Logger),
		ClaimSvc:    usecase.NewClaimService(claimRepo, triage.NewRouter(rules), opts.Logger),
		ExportUC:    usecase.NewExportClaimsUseCase(claimRepo, xlsx.NewWriter()),
		Submissions: intakeUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// NewClaimPipeline wires normalization, extraction, routing and assembly.
// A nil repository is allowed for callers that only Evaluate.
func NewClaimPipeline(cfg config.Config, rules triage.Rules, repo ports.ClaimRepository, opts Options) (*usecase.ProcessClaimUseCase, error) {
	completer, err := newCompleter(cfg, opts.Logger)
	if err != nil {
		return nil, err
	}
	return usecase.NewProcessClaimUseCase(
		document.NewNormalizer(),
		extraction.NewExtractor(completer, opts.Logger),
		triage.NewRouter(rules),
		triage.NewAssembler(rules.Defaults),
		repo,
		usecase.ProcessClaimOptions{
			MaxUploadBytes:    cfg.MaxUploadBytes,
			ExtractionTimeout: cfg.ExtractionTimeout,
			Logger:            opts.Logger,
			Observer:          opts.Observer,
		},
	), nil
}

func newCompleter(cfg config.Config, logger *slog.Logger) (extraction.Completer, error) {
	executor := resilience.NewExecutor(cfg.Resilience(), logger)
	switch cfg.ExtractionBackend {
	case config.BackendOpenAI:
		client, err := openaicompat.New(openaicompat.Config{
			APIKey:      cfg.OpenAICompatAPIKey,
			BaseURL:     cfg.OpenAICompatBaseURL,
			Model:       cfg.OpenAICompatModel,
			Temperature: cfg.ExtractionTemperature,
			MaxTokens:   cfg.ExtractionMaxTokens,
			HTTPTimeout: cfg.LLMHTTPTimeout,
		}, executor)
		if err != nil {
			return nil, fmt.Errorf("init openai-compatible client: %w", err)
		}
		return client, nil
	default:
		return ollama.New(ollama.Config{
			BaseURL:     cfg.OllamaURL,
			Model:       cfg.OllamaGenModel,
			Temperature: cfg.ExtractionTemperature,
			NumPredict:  cfg.ExtractionMaxTokens,
			HTTPTimeout: cfg.LLMHTTPTimeout,
		}, executor), nil
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
