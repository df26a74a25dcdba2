package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/google/uuid"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/storage"
	"go.uber.org/zap"
)

// PhotoService stores execution photos and keeps their references in the execution details
type PhotoService struct {
	storage          storage.Storage
	executionService *ExecutionService
	logger           *zap.Logger
}

// NewPhotoService creates a new PhotoService instance
func NewPhotoService(store storage.Storage, executionService *ExecutionService, logger *zap.Logger) *PhotoService {
	return &PhotoService{
		storage:          store,
		executionService: executionService,
		logger:           logger,
	}
}

// AttachPhoto uploads a photo and appends its storage key to the execution's photo list
func (s *PhotoService) AttachPhoto(ctx context.Context, planID, executionID uuid.UUID, filename, contentType string, data io.Reader) (*domain.PlanExecution, error) {
	execution, err := s.executionService.GetExecution(ctx, planID, executionID)
	if err != nil {
		return nil, err
	}
	if execution.CycleKind == domain.CycleKindTemplate {
		return nil, fmt.Errorf("%w: photos cannot be attached to the template", ErrInvalidInput)
	}
	if execution.IsClosedPeriod() {
		return nil, ErrExecutionClosed
	}

	key := storage.PhotoKey(planID, executionID, filename)
	size, err := s.storage.Put(ctx, key, contentType, data)
	if err != nil {
		s.logger.Error("Failed to upload photo",
			zap.String("execution_id", executionID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	updated, err := s.executionService.AddPhotoReference(ctx, planID, executionID, key)
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to cleanup photo from storage after DB error",
				zap.Error(delErr),
				zap.String("key", key),
			)
		}
		return nil, err
	}

	s.logger.Info("Photo attached",
		zap.String("execution_id", executionID.String()),
		zap.String("key", key),
		zap.Int64("size", size),
	)
	return updated, nil
}

// OpenPhoto streams a photo referenced by the execution. The caller must close the reader.
func (s *PhotoService) OpenPhoto(ctx context.Context, planID, executionID uuid.UUID, ref string) (io.ReadCloser, error) {
	execution, err := s.executionService.GetExecution(ctx, planID, executionID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(execution.Details.Data().Photos, ref) {
		return nil, fmt.Errorf("photo %w", ErrNotFound)
	}

	rc, err := s.storage.Open(ctx, ref)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("photo %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open photo: %w", err)
	}
	return rc, nil
}
