package cli

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/config"
	"scholarspath-quiz/internal/domain"
)

func TestBuildBackendDiskSeedsOnce(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.Storage.Driver = "disk"
	cfg.Storage.Dir = t.TempDir()

	b, err := buildBackend(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("build backend: %v", err)
	}
	defer b.Close()
	if b.generator != nil {
		t.Fatalf("generator should be nil without a url")
	}

	catalog := app.NewCatalog(b.store, nil, zerolog.Nop())
	seeded, err := seedSamples(ctx, catalog, b.store)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if seeded != len(sampleQuestionSets()) {
		t.Fatalf("expected %d sets seeded, got %d", len(sampleQuestionSets()), seeded)
	}
	again, _ := seedSamples(ctx, catalog, b.store)
	if again != 0 {
		t.Fatalf("expected second seed to skip existing sets, got %d", again)
	}

	qs, err := catalog.QuestionSet(ctx, domain.Selection{Level: "jhs", Class: "basic-7-(jhs-1)", Subject: "social-studies"})
	if err != nil || qs[0].CorrectAnswer != "C" {
		t.Fatalf("unexpected seeded set %+v %v", qs, err)
	}
}

func TestBuildBackendRejectsUnknownDriver(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.Driver = "mongo"
	if _, err := buildBackend(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestSampleSetsAreValid(t *testing.T) {
	for sel, qs := range sampleQuestionSets() {
		if err := sel.Validate(); err != nil {
			t.Fatalf("%s: %v", sel, err)
		}
		if err := qs.Validate(); err != nil {
			t.Fatalf("%s: %v", sel, err)
		}
	}
}
