package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tygershark/shiprecon/internal/access"
	"github.com/tygershark/shiprecon/internal/classify"
	"github.com/tygershark/shiprecon/internal/extract"
	"github.com/tygershark/shiprecon/internal/identify"
	"github.com/tygershark/shiprecon/internal/match"
	"github.com/tygershark/shiprecon/internal/model"
	"github.com/tygershark/shiprecon/internal/pipeline"
	"github.com/tygershark/shiprecon/internal/resilience"
	"github.com/tygershark/shiprecon/internal/store"
	"github.com/tygershark/shiprecon/pkg/oracle"
)

// Principal flags shared by the processing commands.
var (
	flagUserID    string
	flagCompanyID string
	flagRole      string
)

func principalFlags(cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.Flags().StringVar(&flagUserID, "user", "operator", "acting user id")
		cmd.Flags().StringVar(&flagCompanyID, "company", "", "acting user's company id")
		cmd.Flags().StringVar(&flagRole, "role", string(model.RoleUser), "acting role (super_admin, admin, user)")
	}
}

func flagPrincipal() model.Principal {
	return model.Principal{
		UserID:    flagUserID,
		CompanyID: flagCompanyID,
		Role:      model.Role(flagRole),
	}
}

// buildEngine wires the full pipeline from config: store, guarded oracle,
// carrier registry, and every stage.
func buildEngine(ctx context.Context) (*pipeline.Pipeline, store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}

	registry, err := identify.LoadRegistry()
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	breaker := resilience.NewBreaker(
		cfg.Breaker.FailureThreshold,
		time.Duration(cfg.Breaker.ResetTimeoutSecs)*time.Second,
	)
	client := oracle.NewGuarded(
		oracle.NewClient(cfg.Oracle.Key, cfg.Oracle.RequestsPerSecond),
		breaker,
		resilience.OraclePolicy(),
	)

	p := pipeline.New(
		classify.NewClassifier(client, cfg.Oracle.SurveyModel),
		extract.NewExtractor(client, registry, cfg.Oracle.Model, cfg.Oracle.MaxTokens, cfg.Extract),
		identify.NewEngine(registry, client, cfg.Oracle.Model, cfg.Engine.EnableMultiSourceAnalysis, cfg.Engine.CarrierOverride),
		match.NewEngine(st, registry),
		access.NewService(nil, cfg.Engine.StrictAccessFiltering),
		st,
		cfg.Engine.BatchSize,
		nil,
	)
	return p, st, nil
}

// loadDocument reads one document from a text file. Pages are separated by
// form feeds, matching common pdf-to-text output.
func loadDocument(path string) (model.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, eris.Wrapf(err, "read document %s", path)
	}
	pages := strings.Split(string(raw), "\f")
	return model.Document{
		ID:       uuid.NewString(),
		Filename: filepath.Base(path),
		Pages:    pages,
	}, nil
}
