package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/config"
	"scholarspath-quiz/internal/domain"
	"scholarspath-quiz/internal/logger"
)

type seedOptions struct {
	file    string
	level   string
	class   string
	subject string
	samples bool
}

// NewSeedCmd loads a question file (the same JSON array the server stores) into the
// configured store.
func NewSeedCmd(configPath *string) *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store a question set from a JSON file, or the built-in samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, *opts)
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", "", "JSON file holding a question array")
	cmd.Flags().StringVar(&opts.level, "level", "", "level, e.g. primary")
	cmd.Flags().StringVar(&opts.class, "class", "", "class, e.g. basic-4")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "subject, e.g. science")
	cmd.Flags().BoolVar(&opts.samples, "samples", false, "store the built-in sample sets")
	return cmd
}

func runSeed(ctx context.Context, configPath string, opts seedOptions) error {
	if opts.file == "" && !opts.samples {
		return fmt.Errorf("nothing to seed: pass --file or --samples")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	b, err := buildBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()
	catalog := app.NewCatalog(b.store, nil, log)

	if opts.samples {
		seeded, err := seedSamples(ctx, catalog, b.store)
		if err != nil {
			return err
		}
		log.Info().Int("sets", seeded).Msg("sample questions seeded")
	}
	if opts.file == "" {
		return nil
	}

	sel := domain.Selection{Level: opts.level, Class: opts.class, Subject: opts.subject}
	questions, err := readQuestionFile(opts.file)
	if err != nil {
		return err
	}
	return catalog.SaveQuestionSet(ctx, sel, questions)
}

func readQuestionFile(path string) (domain.QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var questions domain.QuestionSet
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return questions, nil
}
