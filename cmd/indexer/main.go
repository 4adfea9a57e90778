package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/estimaihq/takeoff-backend/internal/adapters/database"
	"github.com/estimaihq/takeoff-backend/internal/adapters/search"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/clients/postgres"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/clients/typesense"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/observability"
	"github.com/estimaihq/takeoff-backend/internal/knowledge"
	"github.com/estimaihq/takeoff-backend/pkg/config"
	"github.com/estimaihq/takeoff-backend/pkg/utils"
)

func main() {
	var reset bool
	var skipDB bool
	flag.BoolVar(&reset, "reset", false, "delete the existing Typesense collection and reseed Postgres")
	flag.BoolVar(&skipDB, "skip-db", false, "index into Typesense only, without seeding Postgres")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, reset, skipDB); err != nil {
		log.Fatal().Err(err).Msg("Indexing failed")
	}
}

func run(ctx context.Context, reset, skipDB bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	observability.InitLogger(cfg.OTEL.ServiceName, env)

	store, err := knowledge.LoadFromDir(cfg.Knowledge.StandardsDir, *observability.GetLogger())
	if err != nil {
		return err
	}
	records := store.All()

	if !skipDB {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return err
		}
		defer pgClient.Close()

		repo := database.NewStandardAdapter(pgClient)
		count, err := repo.Count(ctx)
		if err != nil {
			return err
		}

		if count > 0 && !reset {
			log.Info().Int("existing", count).Msg("Postgres already seeded, skipping (use -reset to reseed)")
		} else {
			if count > 0 {
				if err := repo.DeleteAll(ctx); err != nil {
					return err
				}
				log.Info().Int("deleted", count).Msg("Cleared existing standards from Postgres")
			}
			if err := repo.CreateBatch(ctx, records); err != nil {
				return err
			}
			log.Info().Int("records", len(records)).Msg("Seeded standards into Postgres")
		}
	}

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset {
		log.Info().Msg("Deleting construction_standards collection")
		if _, err := tsClient.Client().Collection(typesense.StandardsCollection).Delete(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	var adapter *search.TypesenseAdapter
	normalizer, err := utils.NewMaterialNormalizer(cfg.Knowledge.AbbrevConfig)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Knowledge.AbbrevConfig).Msg("Failed to load abbreviation config; indexing without expansion")
		adapter = search.NewTypesenseAdapter(tsClient)
	} else {
		adapter = search.NewTypesenseAdapterWithNormalizer(tsClient, normalizer)
	}

	log.Info().Int("records", len(records)).Msg("Indexing standards into Typesense...")
	indexed := 0
	for i := range records {
		if err := adapter.Index(ctx, &records[i]); err != nil {
			log.Error().Err(err).Int("record_id", records[i].ID).Msg("Failed to index record")
			continue
		}
		indexed++
	}

	log.Info().Int("indexed", indexed).Int("total", len(records)).Msg("Indexing complete")
	return nil
}
