package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

// RequestRepository caches request payloads from the fleet tracker, upserted
// by request_id and never deleted.
type RequestRepository struct {
	db *gorm.DB
}

// NewRequestRepository builds a request repository.
func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// UpsertAll writes every request, replacing any row with the same request id.
func (r *RequestRepository) UpsertAll(ctx context.Context, requests []pipeline.Request) error {
	if len(requests) == 0 {
		return nil
	}
	models := make([]RequestModel, 0, len(requests))
	for _, req := range requests {
		models = append(models, RequestModel{
			RequestID: req.RequestID,
			Number:    req.Number,
			Status:    req.Status,
			Raw:       string(req.Raw),
		})
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "request_id"}},
		UpdateAll: true,
	}).Create(&models).Error; err != nil {
		return fmt.Errorf("failed to upsert requests: %w", err)
	}
	return nil
}

// ListAll returns every cached request, ordered by request id.
func (r *RequestRepository) ListAll(ctx context.Context) ([]pipeline.Request, error) {
	var models []RequestModel
	if err := r.db.WithContext(ctx).Order("request_id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	out := make([]pipeline.Request, 0, len(models))
	for _, m := range models {
		out = append(out, pipeline.Request{
			RequestID: m.RequestID,
			Number:    m.Number,
			Status:    m.Status,
			Raw:       []byte(m.Raw),
		})
	}
	return out, nil
}

// FindByNumber looks up a cached request by its human-facing number.
func (r *RequestRepository) FindByNumber(ctx context.Context, number string) (pipeline.Request, bool, error) {
	var model RequestModel
	err := r.db.WithContext(ctx).Where("number = ?", number).First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return pipeline.Request{}, false, nil
	}
	if err != nil {
		return pipeline.Request{}, false, fmt.Errorf("failed to find request %s: %w", number, err)
	}
	return pipeline.Request{
		RequestID: model.RequestID,
		Number:    model.Number,
		Status:    model.Status,
		Raw:       []byte(model.Raw),
	}, true, nil
}
