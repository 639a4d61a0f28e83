/*
 * @module service/database/migrate_test
 * @description 迁移层单元测试：索引布局与 (owner, name) 冲突合并写入
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试准备 -> 迁移执行 -> 冲突写入验证
 * @rules 值表的复合唯一索引必须可被 ON CONFLICT 子句命中
 * @dependencies testing, gorm.io/driver/sqlite, stretchr/testify
 */

package database

import (
	"testing"

	"labqc-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func newMigratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func numPtr(v float64) *float64 { return &v }

// 迁移后 (sample_id, name) 冲突必须落到复合唯一索引上合并为更新，
// 而不是因索引定义重复列而被 SQLite 拒绝
func TestSampleValueUpsertAfterMigrate(t *testing.T) {
	db := newMigratedDB(t)

	require.NoError(t, db.Create(&models.Sample{ID: "sample-1", SolutionLabel: "MCS-001"}).Error)

	write := func(value string, num float64) error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sample_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "num_value"}),
		}).Create(&models.SampleValue{
			SampleID: "sample-1",
			Name:     "Al 396.152 nm ppm",
			Value:    value,
			NumValue: numPtr(num),
		}).Error
	}

	require.NoError(t, write("4.0", 4.0))
	require.NoError(t, write("4.36", 4.36))

	var rows []models.SampleValue
	require.NoError(t, db.Where("sample_id = ?", "sample-1").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "4.36", rows[0].Value)
	assert.InDelta(t, 4.36, *rows[0].NumValue, 1e-9)
}

func TestControlValueUpsertAfterMigrate(t *testing.T) {
	db := newMigratedDB(t)

	require.NoError(t, db.Create(&models.Run{ID: "run-1", Filename: "batch.csv", Path: "uploads/batch.csv"}).Error)
	row := models.ControlRow{RunID: "run-1", Label: "SJS-Std", Category: "SJS-Std"}
	require.NoError(t, db.Create(&row).Error)

	write := func(num float64) error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "control_row_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "num_value"}),
		}).Create(&models.ControlValue{
			ControlRowID: row.ID,
			Name:         "Al 396.152 nm ppm_Corrected",
			Value:        "8.2",
			NumValue:     numPtr(num),
		}).Error
	}

	require.NoError(t, write(8.2))
	require.NoError(t, write(8.938))

	var count int64
	require.NoError(t, db.Model(&models.ControlValue{}).
		Where("control_row_id = ?", row.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReferenceValueUpsertAfterMigrate(t *testing.T) {
	db := newMigratedDB(t)

	require.NoError(t, db.Create(&models.ReferenceRow{ID: 1, Label: "SJS-Std"}).Error)

	write := func(num float64) error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference_row_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"num_value"}),
		}).Create(&models.ReferenceValue{
			ReferenceRowID: 1,
			Name:           "Al 396.152 nm ppm_Corrected",
			NumValue:       numPtr(num),
		}).Error
	}

	require.NoError(t, write(8.42))
	require.NoError(t, write(8.42))

	var count int64
	require.NoError(t, db.Model(&models.ReferenceValue{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
