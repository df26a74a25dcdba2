package service_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/verdant-ops/gardenledger/internal/service"
	"github.com/verdant-ops/gardenledger/internal/storage"
)

func countFiles(t *testing.T, root string) int {
	t.Helper()
	count := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	return count
}

func TestPhotoService_AttachAndOpen(t *testing.T) {
	f := newFixture(t)
	base := t.TempDir()
	local, err := storage.NewLocalStorage(base)
	require.NoError(t, err)
	executions := f.executionService()
	svc := service.NewPhotoService(local, executions, zap.NewNop())

	period, err := executions.GetOrCreatePeriod(f.ctx, f.plan.ID, 2025, time.February)
	require.NoError(t, err)

	updated, err := svc.AttachPhoto(f.ctx, f.plan.ID, period.ID, "after.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)

	photos := updated.Details.Data().Photos
	require.Len(t, photos, 1)
	assert.True(t, strings.HasPrefix(photos[0], "plans/"+f.plan.ID.String()+"/executions/"+period.ID.String()+"/"))
	assert.Equal(t, 1, countFiles(t, base))

	rc, err := svc.OpenPhoto(f.ctx, f.plan.ID, period.ID, photos[0])
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(content))

	_, err = svc.OpenPhoto(f.ctx, f.plan.ID, period.ID, "plans/other/photo.jpg")
	assert.ErrorIs(t, err, service.ErrNotFound, "only referenced photos can be opened")
}

func TestPhotoService_AttachPhoto_Rejections(t *testing.T) {
	f := newFixture(t)
	base := t.TempDir()
	local, err := storage.NewLocalStorage(base)
	require.NoError(t, err)
	executions := f.executionService()
	svc := service.NewPhotoService(local, executions, zap.NewNop())

	_, err = svc.AttachPhoto(f.ctx, f.plan.ID, uuid.New(), "a.jpg", "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, service.ErrExecutionNotFound)

	template, err := executions.GetOrCreateTemplate(f.ctx, f.plan.ID)
	require.NoError(t, err)
	_, err = svc.AttachPhoto(f.ctx, f.plan.ID, template.ID, "a.jpg", "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	closed := f.closePeriod(t, executions)
	_, err = svc.AttachPhoto(f.ctx, f.plan.ID, closed.ID, "a.jpg", "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, service.ErrExecutionClosed)

	assert.Zero(t, countFiles(t, base), "nothing is uploaded for rejected requests")
}

func TestPhotoService_AttachPhoto_CleansUpOnStoreFailure(t *testing.T) {
	f := newFixture(t)
	base := t.TempDir()
	local, err := storage.NewLocalStorage(base)
	require.NoError(t, err)

	period, err := f.executionService().GetOrCreatePeriod(f.ctx, f.plan.ID, 2025, time.February)
	require.NoError(t, err)

	failing := f.executionServiceWith(failingUpdateStore{f.executions})
	svc := service.NewPhotoService(local, failing, zap.NewNop())

	_, err = svc.AttachPhoto(f.ctx, f.plan.ID, period.ID, "after.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	assert.ErrorIs(t, err, errStoreDown)
	assert.Zero(t, countFiles(t, base), "uploaded photo is removed again")
}
