package typesenseutil

import (
	"context"
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"go.uber.org/zap"

	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/extensions"
)

const OverridesCollection = "assessment_overrides"

// OverrideDocument is one applied decision as stored in the audit collection.
type OverrideDocument struct {
	ID             string `json:"id"`
	RunID          string `json:"run_id"`
	Kind           string `json:"kind"`
	Target         string `json:"target"`
	Action         string `json:"action"`
	StudentCode    string `json:"student_code"`
	AssessmentCode string `json:"assessment_code"`
	Username       string `json:"username"`
	UserID         int64  `json:"user_id"`
	AssignID       int64  `json:"assign_id"`
	DueDate        int64  `json:"due_date"`
	CutoffDate     int64  `json:"cutoff_date"`
	SyncedAt       int64  `json:"synced_at"`
}

// Indexer upserts every run's decisions into Typesense so operators can
// search which overrides a run touched.
type Indexer struct {
	client *typesense.Client
	logger *zap.Logger
}

func NewIndexer(client *typesense.Client, logger *zap.Logger) *Indexer {
	return &Indexer{client: client, logger: logger}
}

func (i *Indexer) IndexOverrides(ctx context.Context, runID string, decisions []extensions.Decision) error {
	docs := OverrideDocuments(runID, decisions, time.Now())
	if len(docs) == 0 {
		i.logger.Info("ℹ️  No decisions to index", zap.String("run_id", runID))
		return nil
	}

	if err := i.ensureSchema(ctx); err != nil {
		return err
	}

	documents := make([]any, len(docs))
	for n, d := range docs {
		documents[n] = d
	}

	action := api.IndexAction("upsert")
	_, err := i.client.Collection(OverridesCollection).Documents().Import(ctx, documents, &api.ImportDocumentsParams{
		Action: &action,
	})
	if err != nil {
		return fmt.Errorf("import %s: %w", OverridesCollection, err)
	}

	i.logger.Info("✅ Indexed decisions", zap.String("run_id", runID), zap.Int("documents", len(docs)))
	return nil
}

func (i *Indexer) ensureSchema(ctx context.Context) error {
	if _, err := i.client.Collection(OverridesCollection).Retrieve(ctx); err == nil {
		return nil
	}

	i.logger.Warn("⚠️  Overrides collection missing, creating")

	facet := true
	defaultSortingField := "synced_at"
	schema := &api.CollectionSchema{
		Name: OverridesCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "run_id", Type: "string", Facet: &facet},
			{Name: "kind", Type: "string", Facet: &facet},
			{Name: "target", Type: "string", Facet: &facet},
			{Name: "action", Type: "string", Facet: &facet},
			{Name: "student_code", Type: "string", Infix: &facet},
			{Name: "assessment_code", Type: "string", Facet: &facet, Infix: &facet},
			{Name: "username", Type: "string"},
			{Name: "user_id", Type: "int64"},
			{Name: "assign_id", Type: "int64"},
			{Name: "due_date", Type: "int64", Sort: &facet},
			{Name: "cutoff_date", Type: "int64", Sort: &facet},
			{Name: "synced_at", Type: "int64", Sort: &facet},
		},
		DefaultSortingField: &defaultSortingField,
	}

	if _, err := i.client.Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("create %s collection: %w", OverridesCollection, err)
	}
	return nil
}

// OverrideDocuments maps decisions that reached a target table to documents.
// The id is stable per record and target so later runs replace earlier ones.
// Failed writes are left out so they never replace the document of the last
// write that landed; they show up in the run status and metrics instead.
func OverrideDocuments(runID string, decisions []extensions.Decision, at time.Time) []OverrideDocument {
	var docs []OverrideDocument
	for _, d := range decisions {
		switch {
		case d.Target == "":
			continue
		case d.Action == extensions.ActionSkipped, d.Action == extensions.ActionFailed:
			continue
		}
		docs = append(docs, OverrideDocument{
			ID:             fmt.Sprintf("%s:%d:%d", d.Target, d.UserID, d.AssignID),
			RunID:          runID,
			Kind:           string(d.Kind),
			Target:         string(d.Target),
			Action:         string(d.Action),
			StudentCode:    d.Key.StudentCode,
			AssessmentCode: d.Key.AssessmentCode,
			Username:       d.Username,
			UserID:         d.UserID,
			AssignID:       d.AssignID,
			DueDate:        d.DueDate,
			CutoffDate:     d.CutoffDate,
			SyncedAt:       at.Unix(),
		})
	}
	return docs
}
