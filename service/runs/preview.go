/*
 * @module service/runs/preview
 * @description 批次文件预览：从磁盘读取原始导出文件，返回前若干条数据行
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/ingestion_pipeline.md
 * @stateFlow 只读，不触碰数据库中的解析结果
 * @rules 预览以文件首行为键，按原始布局呈现，不做表头合并
 * @dependencies labqc-service/service/ingest
 * @refs api/controllers/run_controller.go
 */

package runs

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"labqc-service/service/ingest"
	"labqc-service/service/models"
)

const previewRows = 5

// Preview 返回批次原始文件的前几条数据行，以首行单元格为键
func (s *RunService) Preview(runID string) ([]map[string]string, error) {
	var run models.Run
	if err := s.db.First(&run, "id = ?", runID).Error; err != nil {
		return nil, fmt.Errorf("批次不存在: %w", err)
	}

	data, err := os.ReadFile(run.Path)
	if err != nil {
		return nil, fmt.Errorf("读取批次文件失败: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(ingest.DecodeBytes(data)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析批次文件失败: %w", err)
	}
	if len(records) == 0 {
		return []map[string]string{}, nil
	}

	keys := records[0]
	rows := make([]map[string]string, 0, previewRows)
	for _, record := range records[1:] {
		if len(rows) == previewRows {
			break
		}
		row := make(map[string]string, len(keys))
		for i, key := range keys {
			if i < len(record) {
				row[key] = record[i]
			} else {
				row[key] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
