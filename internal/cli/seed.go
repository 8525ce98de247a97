package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"mindcoach-service/internal/config"
)

// NewSeedCmd writes the starter questionnaire into the configured database.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Store the starter questionnaire in MongoDB or Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Mongo.URI == "" && cfg.Postgres.URL == "" {
		return fmt.Errorf("seed needs mongo.uri or postgres.url")
	}
	if usePostgres(cfg) {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	stores, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.close()

	questions := sampleQuestions()
	for _, q := range questions {
		if err := stores.writer.SaveQuestion(ctx, q); err != nil {
			return fmt.Errorf("seed question %s: %w", q.ID, err)
		}
	}
	if err := stores.questions.Invalidate(ctx); err != nil {
		log.Printf("question cache invalidate failed: %v", err)
	}
	log.Printf("seeded %d questions", len(questions))
	return nil
}
