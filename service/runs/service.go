/*
 * @module service/runs/service
 * @description 批次服务：文件摄取、软删除（隐藏）与批次列表。
 *              摄取在单个数据库事务内完成解析结果落库与漂移修正，
 *              失败时回滚并删除本次写入的上传文件
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/ingestion_pipeline.md
 * @stateFlow 校验 → 落盘 → 事务（批次/质控/样品/修正）→ 提交；任一步失败执行补偿清理
 * @rules 活动批次间文件名唯一；样品标签全局唯一，重复出现时更新既有记录；
 *        批次只隐藏不删除，隐藏时文件名追加 _deleted 后缀释放原名
 * @dependencies labqc-service/service/ingest, labqc-service/service/correction, gorm.io/gorm
 * @refs api/controllers/upload_controller.go, api/controllers/run_controller.go
 */

package runs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"labqc-service/service/correction"
	"labqc-service/service/ingest"
	"labqc-service/service/meta"
	"labqc-service/service/models"
	"labqc-service/service/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RunService 批次服务
type RunService struct {
	db        *gorm.DB
	set       *schema.Set
	engine    *correction.Engine
	uploadDir string
}

// NewRunService 创建批次服务实例
func NewRunService(db *gorm.DB, set *schema.Set, uploadDir string) *RunService {
	return &RunService{
		db:        db,
		set:       set,
		engine:    correction.NewEngine(set),
		uploadDir: uploadDir,
	}
}

// IngestInput 一次上传的输入：CSV 必选，伴随文档可选
type IngestInput struct {
	CSVName string
	CSVData []byte
	PDFName string
	PDFData []byte
}

// IngestResult 摄取成功的返回
type IngestResult struct {
	RunID string `json:"runId"`
}

// Ingest 摄取一个仪器导出文件。
// 解析校验在落库前完成；文件写入建立补偿清单，事务失败时逐一删除
func (s *RunService) Ingest(input *IngestInput) (*IngestResult, error) {
	start := time.Now()
	result, err := s.ingest(input)
	ingestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		ingestTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	ingestTotal.WithLabelValues("success").Inc()
	return result, nil
}

func (s *RunService) ingest(input *IngestInput) (*IngestResult, error) {
	var count int64
	err := s.db.Model(&models.Run{}).
		Where("filename = ? AND hidden = ?", input.CSVName, false).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("查询重名文件失败: %w", err)
	}
	if count > 0 {
		return nil, ingest.NewValidationError("同名文件已存在: %s", input.CSVName)
	}

	parsed, err := ingest.ParseAndValidate(s.set, input.CSVData)
	if err != nil {
		return nil, err
	}

	// 补偿清单：事务失败时删除本次写入的文件
	var written []string
	cleanup := func() {
		for _, path := range written {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				slog.Error("清理上传文件失败", "path", path, "error", err)
			}
		}
	}

	runID := uuid.New().String()
	csvPath, err := s.saveFile(runID, input.CSVName, input.CSVData)
	if err != nil {
		return nil, err
	}
	written = append(written, csvPath)

	run := &models.Run{
		ID:             runID,
		Filename:       input.CSVName,
		Path:           csvPath,
		UploadedAt:     time.Now(),
		InstrumentType: parsed.Type,
	}
	if len(input.PDFData) > 0 {
		pdfPath, err := s.saveFile(runID, input.PDFName, input.PDFData)
		if err != nil {
			cleanup()
			return nil, err
		}
		written = append(written, pdfPath)
		name := input.PDFName
		run.CompanionName = &name
		run.CompanionPath = &pdfPath
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("写入批次记录失败: %w", err)
		}
		if err := s.insertControls(tx, run, parsed); err != nil {
			return err
		}
		if err := s.upsertSamples(tx, run, parsed); err != nil {
			return err
		}
		return s.engine.Apply(tx, run)
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	slog.Info("批次摄取完成", "run_id", runID, "filename", input.CSVName,
		"type", parsed.Type, "samples", len(parsed.Samples), "controls", len(parsed.Controls))
	return &IngestResult{RunID: runID}, nil
}

// saveFile 以批次标识为前缀落盘，避免并发上传的文件名冲突
func (s *RunService) saveFile(runID, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("创建上传目录失败: %w", err)
	}
	path := filepath.Join(s.uploadDir, runID+"_"+filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入上传文件失败: %w", err)
	}
	return path, nil
}

func (s *RunService) insertControls(tx *gorm.DB, run *models.Run, parsed *ingest.Result) error {
	tsColumn := meta.TimestampColumn[run.InstrumentType]
	for _, record := range parsed.Controls {
		label := record.Label()
		row := models.ControlRow{
			RunID:      run.ID,
			Label:      label,
			Category:   meta.MatchControlCategory(label),
			AcquiredAt: ingest.ParseTimestamp(record[tsColumn]),
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("写入质控行失败: %w", err)
		}
		for _, name := range parsed.Headers {
			value, ok := record[name]
			if !ok || value == "" {
				continue
			}
			cv := models.ControlValue{
				ControlRowID: row.ID,
				Name:         name,
				Value:        value,
				NumValue:     ingest.Numeric(value),
			}
			if err := tx.Create(&cv).Error; err != nil {
				return fmt.Errorf("写入质控值失败: %w", err)
			}
		}
		ingestRows.WithLabelValues("control").Inc()
	}
	return nil
}

// upsertSamples 样品按标签全局去重：已存在的样品更新既有值，并补充批次关联
func (s *RunService) upsertSamples(tx *gorm.DB, run *models.Run, parsed *ingest.Result) error {
	ts := s.set.ForType(run.InstrumentType)
	for _, record := range parsed.Samples {
		label := record.Label()

		var sample models.Sample
		err := tx.Where("solution_label = ?", label).First(&sample).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			sample = models.Sample{ID: uuid.New().String(), SolutionLabel: label}
			if err := tx.Create(&sample).Error; err != nil {
				return fmt.Errorf("创建样品 %q 失败: %w", label, err)
			}
		case err != nil:
			return fmt.Errorf("查询样品 %q 失败: %w", label, err)
		}

		primary, aux := ingest.Partition(record, ts)
		for name, value := range primary {
			if value == "" {
				continue
			}
			sv := models.SampleValue{
				SampleID: sample.ID,
				Name:     name,
				Value:    value,
				NumValue: ingest.Numeric(value),
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "sample_id"}, {Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "num_value"}),
			}).Create(&sv).Error
			if err != nil {
				return fmt.Errorf("写入样品值失败: %w", err)
			}
		}
		for name, value := range aux {
			if value == "" {
				continue
			}
			se := models.SampleExtra{SampleID: sample.ID, Name: name, Value: value}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "sample_id"}, {Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).Create(&se).Error
			if err != nil {
				return fmt.Errorf("写入样品辅助值失败: %w", err)
			}
		}

		link := models.RunSample{RunID: run.ID, SampleID: sample.ID}
		err = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
		if err != nil {
			return fmt.Errorf("写入批次样品关联失败: %w", err)
		}
		ingestRows.WithLabelValues("sample").Inc()
	}
	return nil
}

// Hide 软删除批次：置隐藏位并为文件名追加后缀，释放原文件名
func (s *RunService) Hide(runID string) error {
	var run models.Run
	if err := s.db.First(&run, "id = ?", runID).Error; err != nil {
		return fmt.Errorf("批次不存在: %w", err)
	}
	if run.Hidden {
		return nil
	}
	err := s.db.Model(&run).Updates(map[string]interface{}{
		"filename": run.Filename + "_deleted",
		"hidden":   true,
	}).Error
	if err != nil {
		return fmt.Errorf("隐藏批次失败: %w", err)
	}
	slog.Info("批次已隐藏", "run_id", runID, "filename", run.Filename)
	return nil
}

// RunInfo 批次列表项
type RunInfo struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Type       string              `json:"type"`
	Instrument meta.InstrumentType `json:"instrument"`
	UploadDate time.Time           `json:"uploadDate"`
	HasPDF     bool                `json:"hasPdf"`
	Status     string              `json:"status"`
}

// List 活动批次列表，按上传时间倒序
func (s *RunService) List() ([]RunInfo, error) {
	var rows []models.Run
	err := s.db.Where("hidden = ?", false).Order("uploaded_at DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询批次列表失败: %w", err)
	}

	infos := make([]RunInfo, 0, len(rows))
	for _, run := range rows {
		ext := strings.ToUpper(strings.TrimPrefix(filepath.Ext(run.Filename), "."))
		infos = append(infos, RunInfo{
			ID:         run.ID,
			Name:       run.Filename,
			Type:       ext,
			Instrument: run.InstrumentType,
			UploadDate: run.UploadedAt,
			HasPDF:     run.CompanionPath != nil,
			Status:     "Uploaded",
		})
	}
	return infos, nil
}
