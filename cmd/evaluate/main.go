package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/estimaihq/takeoff-backend/internal/domain/providers"
	"github.com/estimaihq/takeoff-backend/internal/evaluation"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/clients/openai"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/observability"
	"github.com/estimaihq/takeoff-backend/internal/knowledge"
	"github.com/estimaihq/takeoff-backend/internal/retrieval"
	"github.com/estimaihq/takeoff-backend/pkg/config"
)

func main() {
	var goldenPath string
	var modeFlag string
	flag.StringVar(&goldenPath, "golden", "data/golden_queries.json", "path to golden queries file")
	flag.StringVar(&modeFlag, "mode", "", "run a single mode (keyword, hybrid, multiquery); default runs all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	observability.InitLogger(cfg.OTEL.ServiceName, env)

	store, err := knowledge.LoadFromDir(cfg.Knowledge.StandardsDir, *observability.GetLogger())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load standards corpus")
	}

	queries, err := evaluation.LoadGoldenQueries(goldenPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", goldenPath).Msg("Failed to load golden queries")
	}
	if err := evaluation.ValidateGoldenQueries(queries); err != nil {
		log.Fatal().Err(err).Msg("Golden queries failed validation")
	}

	ctx := context.Background()

	var embedder providers.Embedder
	var generator providers.TextGenerator
	if cfg.OpenAI.APIKey != "" {
		client, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize OpenAI client; hybrid falls back to keyword-only")
		} else {
			embedder = client
			generator = client
		}
	} else {
		log.Warn().Msg("OPENAI_API_KEY is not set; hybrid and multiquery run keyword-only")
	}

	// Keyword baseline never builds its semantic index
	keyword := retrieval.NewHybridRetriever(store.All(), nil, nil)

	hybrid := retrieval.NewHybridRetriever(store.All(), embedder, nil)
	if embedder != nil {
		if err := hybrid.BuildSemantic(ctx, store.All()); err != nil {
			log.Warn().Err(err).Msg("Failed to build semantic index")
		}
	}

	multiQuery := retrieval.NewMultiQueryRetriever(hybrid, generator, nil)

	runner := evaluation.NewRunner(evaluation.Retrievers{
		Keyword:    keyword,
		Hybrid:     hybrid,
		MultiQuery: multiQuery,
	}, evaluation.NewGuardrails(evaluation.GuardrailConfig{MaxQueryVariants: 8}))

	modes := evaluation.ValidModes()
	if modeFlag != "" {
		mode := evaluation.RetrievalMode(modeFlag)
		if !mode.IsValid() {
			log.Fatal().Str("mode", modeFlag).Msg("Invalid mode")
		}
		modes = []evaluation.RetrievalMode{mode}
	}

	summaries := make([]*evaluation.EvalSummary, 0, len(modes))
	for _, mode := range modes {
		summary, err := runner.Run(ctx, mode, queries)
		if err != nil {
			log.Fatal().Err(err).Str("mode", string(mode)).Msg("Evaluation failed")
		}
		summaries = append(summaries, summary)
	}

	out, _ := json.MarshalIndent(summaries, "", "  ")
	fmt.Println(string(out))
}
