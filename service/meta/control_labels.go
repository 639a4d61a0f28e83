/*
 * @module service/meta/control_labels
 * @description 质控行标签类别定义，摄取时用于校验质控行的完整性
 * @architecture 分层架构 - 元数据层
 * @documentReference ai_docs/ingestion_pipeline.md
 * @stateFlow 进程启动时编译正则，运行期只读
 * @rules 每次摄取必须至少命中全部必需类别，未命中任何类别的标签视为非法
 * @refs service/ingest/classify.go
 */

package meta

import "regexp"

const (
	// CategoryCalibrationCheck 校准核查类别名，聚合查询按类别筛选
	CategoryCalibrationCheck = "QC MES"
	// CategorySecondaryStandard 二级标样类别名
	CategorySecondaryStandard = "SJS-Std"
)

// ControlCategory 质控行类别
type ControlCategory struct {
	Name    string
	Pattern *regexp.Regexp
}

// ControlCategories 必需的质控类别，按校验顺序排列：
// 洗液空白、校准标样系列、稀释空白、校准核查、二级标样、清洗液。
var ControlCategories = []ControlCategory{
	{Name: "Blank", Pattern: regexp.MustCompile(`^Blank$`)},
	{Name: "Standard", Pattern: regexp.MustCompile(`(?i)^Standard`)},
	{Name: "BLK", Pattern: regexp.MustCompile(`(?i)^BLK`)},
	{Name: "QC MES", Pattern: regexp.MustCompile(`(?i)^QC MES`)},
	{Name: "SJS-Std", Pattern: regexp.MustCompile(`^SJS-Std$`)},
	{Name: "Wash", Pattern: regexp.MustCompile(`^Wash$`)},
}

// MatchControlCategory 返回标签命中的类别名，未命中返回空串
func MatchControlCategory(label string) string {
	for _, c := range ControlCategories {
		if c.Pattern.MatchString(label) {
			return c.Name
		}
	}
	return ""
}
