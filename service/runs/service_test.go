/*
 * @module service/runs/service_test
 * @description 批次服务端到端测试：摄取、重名拒绝、失败清理、软删除、
 *              样品跨批次更新、预览与下载打包
 */

package runs

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"testing"

	"labqc-service/service/ingest"
	"labqc-service/service/meta"
	"labqc-service/service/models"
	"labqc-service/service/schema"
	"labqc-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alColumn = "Al 396.152 nm ppm"

func newRunService(t *testing.T) (*RunService, *testutil.TestDB, string) {
	t.Helper()
	tdb := testutil.NewTestDB()
	dir := t.TempDir()
	return NewRunService(tdb.DB, schema.Derive(), dir), tdb, dir
}

func sampleCorrected(t *testing.T, tdb *testutil.TestDB, label, name string) *float64 {
	t.Helper()
	var sv models.SampleValue
	err := tdb.DB.
		Joins("JOIN samples ON samples.id = sample_values.sample_id").
		Where("samples.solution_label = ? AND sample_values.name = ?", label, name).
		First(&sv).Error
	require.NoError(t, err)
	return sv.NumValue
}

func TestIngestMajorEndToEnd(t *testing.T) {
	svc, tdb, dir := newRunService(t)

	result, err := svc.Ingest(&IngestInput{CSVName: "batch.csv", CSVData: testutil.ValidMajorCSV()})
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)

	var run models.Run
	require.NoError(t, tdb.DB.First(&run, "id = ?", result.RunID).Error)
	assert.Equal(t, "batch.csv", run.Filename)
	assert.False(t, run.Hidden)
	assert.FileExists(t, run.Path)

	var controlCount int64
	require.NoError(t, tdb.DB.Model(&models.ControlRow{}).
		Where("run_id = ?", result.RunID).Count(&controlCount).Error)
	assert.Equal(t, int64(8), controlCount)

	var sampleCount int64
	require.NoError(t, tdb.DB.Model(&models.Sample{}).Count(&sampleCount).Error)
	assert.Equal(t, int64(2), sampleCount)

	// Al 均值 4.55 → 因子 0.09，原始值 4.0 修正为 4.36
	corrected := sampleCorrected(t, tdb, "MCS-001", schema.Corrected(alColumn))
	require.NotNil(t, corrected)
	assert.InDelta(t, 4.36, *corrected, 1e-9)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestIngestDuplicateFilename(t *testing.T) {
	svc, tdb, _ := newRunService(t)

	_, err := svc.Ingest(&IngestInput{CSVName: "batch.csv", CSVData: testutil.ValidMajorCSV()})
	require.NoError(t, err)

	_, err = svc.Ingest(&IngestInput{CSVName: "batch.csv", CSVData: testutil.ValidMajorCSV()})
	require.Error(t, err)
	var verr *ingest.ValidationError
	assert.ErrorAs(t, err, &verr)

	var count int64
	require.NoError(t, tdb.DB.Model(&models.Run{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestIngestRejectsBeforePersisting(t *testing.T) {
	svc, tdb, dir := newRunService(t)

	// 缺少质控行的文件在落盘前被拒绝
	_, err := svc.Ingest(&IngestInput{
		CSVName: "bad.csv",
		CSVData: testutil.MajorCSV(testutil.MajorSampleRows()),
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, tdb.DB.Model(&models.Run{}).Count(&count).Error)
	assert.Zero(t, count)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestIngestUnrecognizedFormat(t *testing.T) {
	svc, _, _ := newRunService(t)

	_, err := svc.Ingest(&IngestInput{CSVName: "junk.csv", CSVData: []byte("a,b,c\n1,2,3\n")})
	require.Error(t, err)
	var ferr *ingest.FormatError
	assert.ErrorAs(t, err, &ferr)
}

func TestHideFreesFilename(t *testing.T) {
	svc, tdb, _ := newRunService(t)

	result, err := svc.Ingest(&IngestInput{CSVName: "batch.csv", CSVData: testutil.ValidMajorCSV()})
	require.NoError(t, err)

	require.NoError(t, svc.Hide(result.RunID))

	var run models.Run
	require.NoError(t, tdb.DB.First(&run, "id = ?", result.RunID).Error)
	assert.True(t, run.Hidden)
	assert.Equal(t, "batch.csv_deleted", run.Filename)

	list, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	// 隐藏后原文件名可重新上传
	_, err = svc.Ingest(&IngestInput{CSVName: "batch.csv", CSVData: testutil.ValidMajorCSV()})
	require.NoError(t, err)
}

func TestSampleUpsertAcrossRuns(t *testing.T) {
	svc, tdb, _ := newRunService(t)

	_, err := svc.Ingest(&IngestInput{CSVName: "first.csv", CSVData: testutil.ValidMajorCSV()})
	require.NoError(t, err)

	rows := append(testutil.MajorControlRows(), map[string]string{
		"Rack:Tube": "1:1", "Solution Label": "MCS-001", "Type": "Samp",
		"Timestamp": "02-06-2026 10:00:00", alColumn: "5.0",
	})
	_, err = svc.Ingest(&IngestInput{CSVName: "second.csv", CSVData: testutil.MajorCSV(rows)})
	require.NoError(t, err)

	// 同标签样品不重复建行，原始值与修正值均更新
	var sampleCount int64
	require.NoError(t, tdb.DB.Model(&models.Sample{}).Count(&sampleCount).Error)
	assert.Equal(t, int64(2), sampleCount)

	corrected := sampleCorrected(t, tdb, "MCS-001", schema.Corrected(alColumn))
	require.NotNil(t, corrected)
	assert.InDelta(t, 5.0*1.09, *corrected, 1e-9)

	var links int64
	require.NoError(t, tdb.DB.Model(&models.RunSample{}).Count(&links).Error)
	assert.Equal(t, int64(3), links)
}

func TestPreview(t *testing.T) {
	svc, _, _ := newRunService(t)

	result, err := svc.Ingest(&IngestInput{CSVName: "batch.csv", CSVData: testutil.ValidMajorCSV()})
	require.NoError(t, err)

	rows, err := svc.Preview(result.RunID)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Contains(t, rows[1], "Rack:Tube")
}

func TestBundle(t *testing.T) {
	svc, _, _ := newRunService(t)

	result, err := svc.Ingest(&IngestInput{
		CSVName: "batch.csv",
		CSVData: testutil.ValidMajorCSV(),
		PDFName: "report.pdf",
		PDFData: []byte("%PDF-1.4"),
	})
	require.NoError(t, err)

	bundle, err := svc.Bundle(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, "batch_bundle.zip", bundle.Filename)

	zr, err := zip.NewReader(bytes.NewReader(bundle.Data), int64(len(bundle.Data)))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["batch_RAW.csv"])
	assert.True(t, names["All_Elements_Corrected.csv"])
	assert.True(t, names["Passed_Elements.csv"])
	assert.True(t, names["Failed_Elements.csv"])
	assert.True(t, names["report.pdf"])
}

// 合格判定只累计本仪器类型的精确核查标签，异标签 QC 行不拉偏均值
func TestBundlePassFailUsesExactCheckLabel(t *testing.T) {
	svc, tdb, _ := newRunService(t)

	result, err := svc.Ingest(&IngestInput{CSVName: "batch.csv", CSVData: testutil.ValidMajorCSV()})
	require.NoError(t, err)

	row := models.ControlRow{
		RunID: result.RunID, Label: "QC MES 10 ppm", Category: meta.CategoryCalibrationCheck,
	}
	require.NoError(t, tdb.DB.Create(&row).Error)
	num := 100.0
	require.NoError(t, tdb.DB.Create(&models.ControlValue{
		ControlRowID: row.ID, Name: alColumn, Value: "100", NumValue: &num,
	}).Error)

	bundle, err := svc.Bundle(result.RunID)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(bundle.Data), int64(len(bundle.Data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != "Passed_Elements.csv" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		// Al 均值 4.55 在 5 ppm 目标 ±10% 内，必须保留在通过名单中
		assert.Contains(t, string(content), schema.Corrected(alColumn))
		return
	}
	t.Fatal("结果包缺少 Passed_Elements.csv")
}
