/*
 * @module service/cleanup/file_cleanup_service_test
 * @description 清理服务单元测试：孤儿文件删除与批次文件保留
 */

package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"labqc-service/service/auth"
	"labqc-service/service/meta"
	"labqc-service/service/models"
	"labqc-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupOrphanFiles(t *testing.T) {
	tdb := testutil.NewTestDB()
	dir := t.TempDir()

	kept := filepath.Join(dir, "run-1_batch.csv")
	orphan := filepath.Join(dir, "stale_upload.csv")
	require.NoError(t, os.WriteFile(kept, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(orphan, []byte("x"), 0o644))

	require.NoError(t, tdb.DB.Create(&models.Run{
		ID: "run-1", Filename: "batch.csv", Path: kept,
		UploadedAt: time.Now(), InstrumentType: meta.InstrumentMajor,
	}).Error)

	svc := NewFileCleanupService(tdb.DB, auth.NewAuthService(tdb.DB, time.Hour), dir, "0 0 2 * * *")
	deleted, err := svc.CleanupOrphanFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	assert.FileExists(t, kept)
	assert.NoFileExists(t, orphan)
}

func TestCleanupMissingUploadDir(t *testing.T) {
	tdb := testutil.NewTestDB()
	svc := NewFileCleanupService(tdb.DB, auth.NewAuthService(tdb.DB, time.Hour),
		filepath.Join(t.TempDir(), "absent"), "0 0 2 * * *")

	deleted, err := svc.CleanupOrphanFiles(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
