/*
 * @module service/correction/engine_test
 * @description 漂移修正引擎单元测试：因子推导、样品与二级标样回写、幂等性
 */

package correction

import (
	"testing"
	"time"

	"labqc-service/service/meta"
	"labqc-service/service/models"
	"labqc-service/service/schema"
	"labqc-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alColumn = "Al 396.152 nm ppm"

func seedRun(t *testing.T, tdb *testutil.TestDB) *models.Run {
	t.Helper()

	run := &models.Run{
		ID:             "run-1",
		Filename:       "major.csv",
		Path:           "/tmp/major.csv",
		UploadedAt:     time.Now(),
		InstrumentType: meta.InstrumentMajor,
	}
	require.NoError(t, tdb.DB.Create(run).Error)

	// 两条校准核查行，Al 均值 4.55，因子 (5-4.55)/5 = 0.09
	for _, raw := range []float64{4.5, 4.6} {
		v := raw
		row := models.ControlRow{RunID: run.ID, Label: "QC MES 5 ppm", Category: "QC MES"}
		require.NoError(t, tdb.DB.Create(&row).Error)
		require.NoError(t, tdb.DB.Create(&models.ControlValue{
			ControlRowID: row.ID, Name: alColumn, Value: "x", NumValue: &v,
		}).Error)
	}

	sjs := models.ControlRow{RunID: run.ID, Label: meta.SecondaryStandardLabel, Category: "SJS-Std"}
	require.NoError(t, tdb.DB.Create(&sjs).Error)
	sjsVal := 8.2
	require.NoError(t, tdb.DB.Create(&models.ControlValue{
		ControlRowID: sjs.ID, Name: alColumn, Value: "8.2", NumValue: &sjsVal,
	}).Error)

	sample := models.Sample{ID: "sample-1", SolutionLabel: "MCS-001"}
	require.NoError(t, tdb.DB.Create(&sample).Error)
	raw := 4.0
	require.NoError(t, tdb.DB.Create(&models.SampleValue{
		SampleID: sample.ID, Name: alColumn, Value: "4.0", NumValue: &raw,
	}).Error)
	require.NoError(t, tdb.DB.Create(&models.RunSample{RunID: run.ID, SampleID: sample.ID}).Error)

	return run
}

func TestFactors(t *testing.T) {
	tdb := testutil.NewTestDB()
	set := schema.Derive()
	run := seedRun(t, tdb)

	factors, err := NewEngine(set).Factors(tdb.DB, run)
	require.NoError(t, err)
	require.Len(t, factors, 1)
	assert.InDelta(t, 0.09, factors[alColumn], 1e-9)
}

func TestApplyWritesCompanions(t *testing.T) {
	tdb := testutil.NewTestDB()
	set := schema.Derive()
	run := seedRun(t, tdb)

	require.NoError(t, NewEngine(set).Apply(tdb.DB, run))

	var sv models.SampleValue
	require.NoError(t, tdb.DB.
		Where("sample_id = ? AND name = ?", "sample-1", schema.Corrected(alColumn)).
		First(&sv).Error)
	require.NotNil(t, sv.NumValue)
	assert.InDelta(t, 4.36, *sv.NumValue, 1e-9)

	// 批次内二级标样行同样回写
	var cv models.ControlValue
	require.NoError(t, tdb.DB.
		Joins("JOIN control_rows ON control_rows.id = control_values.control_row_id").
		Where("control_rows.label = ? AND control_values.name = ?",
			meta.SecondaryStandardLabel, schema.Corrected(alColumn)).
		First(&cv).Error)
	require.NotNil(t, cv.NumValue)
	assert.InDelta(t, 8.2*1.09, *cv.NumValue, 1e-9)
}

func TestApplyIsIdempotent(t *testing.T) {
	tdb := testutil.NewTestDB()
	set := schema.Derive()
	run := seedRun(t, tdb)

	engine := NewEngine(set)
	require.NoError(t, engine.Apply(tdb.DB, run))
	require.NoError(t, engine.Apply(tdb.DB, run))

	var count int64
	require.NoError(t, tdb.DB.Model(&models.SampleValue{}).
		Where("name = ?", schema.Corrected(alColumn)).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestApplyWithoutCheckRows(t *testing.T) {
	tdb := testutil.NewTestDB()
	set := schema.Derive()

	run := &models.Run{
		ID: "run-2", Filename: "empty.csv", Path: "/tmp/empty.csv",
		UploadedAt: time.Now(), InstrumentType: meta.InstrumentMajor,
	}
	require.NoError(t, tdb.DB.Create(run).Error)

	require.NoError(t, NewEngine(set).Apply(tdb.DB, run))

	var count int64
	require.NoError(t, tdb.DB.Model(&models.SampleValue{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
