/*
 * @module service/meta/instrument
 * @description 仪器类型元数据定义，包括两种导出格式的标识、原始表头模板和校准目标值
 * @architecture 分层架构 - 元数据层
 * @documentReference ai_docs/ingestion_pipeline.md
 * @stateFlow 进程启动时载入，运行期只读
 * @rules 表头模板为固定常量，任何新仪器格式都必须在此登记
 * @refs service/schema, service/ingest
 */

package meta

// InstrumentType 仪器类型
type InstrumentType string

const (
	// InstrumentMajor 主量元素导出格式（ICP-OES）
	InstrumentMajor InstrumentType = "major"
	// InstrumentTrace 微量元素导出格式（ICP-MS）
	InstrumentTrace InstrumentType = "trace"
)

const (
	// MajorFirstToken 主量元素文件首个表头标记
	MajorFirstToken = "Rack:Tube"
	// TraceFirstToken 微量元素文件首个表头标记
	TraceFirstToken = "Sample"
)

// IsValidInstrumentType 校验仪器类型是否合法
func IsValidInstrumentType(t InstrumentType) bool {
	return t == InstrumentMajor || t == InstrumentTrace
}

// CalibrationCheckLabel 各仪器类型对应的校准核查标签
var CalibrationCheckLabel = map[InstrumentType]string{
	InstrumentMajor: "QC MES 5 ppm",
	InstrumentTrace: "QC MES 50 ppb",
}

// CertifiedTarget 各仪器类型校准核查的认证目标值
var CertifiedTarget = map[InstrumentType]float64{
	InstrumentMajor: 5,
	InstrumentTrace: 50,
}

// Unit 各仪器类型的浓度单位
var Unit = map[InstrumentType]string{
	InstrumentMajor: "ppm",
	InstrumentTrace: "ppb",
}

// TimestampColumn 各仪器类型数据行中的采集时间列名
var TimestampColumn = map[InstrumentType]string{
	InstrumentMajor: "Timestamp",
	InstrumentTrace: "Acq. Date-Time",
}

const (
	// SecondaryStandardLabel 二级标样标签
	SecondaryStandardLabel = "SJS-Std"
	// ReferenceErrorLabel 参考表误差行标签
	ReferenceErrorLabel = "Error"
	// SamplePrefix 样品行标签前缀
	SamplePrefix = "MCS"
	// ToleranceLimit 允许误差（百分比）
	ToleranceLimit = 10.0
)

// MajorRawHeaders 主量元素导出文件的原始表头模板。
// 模板保留了厂商导出中的引号与多余空格，归一化在 schema 包中完成。
// 元素列以 "nm ppm" 结尾的为浓度列，"nm c/s" 结尾的为强度列（不入样品表）。
var MajorRawHeaders = []string{
	"Rack:Tube",
	`"Solution Label"`,
	"Type",
	"Timestamp",
	"Al 396.152 nm ppm",
	"Al 396.152 nm c/s",
	"Ba 455.403 nm ppm",
	"Ca 317.933  nm ppm",
	"Ca 317.933 nm c/s",
	"Ca 396.847 nm ppm",
	"Fe 238.204 nm ppm",
	"Fe 238.204 nm c/s",
	"K 766.491 nm ppm",
	"Mg 285.213 nm ppm",
	"Mn 257.610 nm ppm",
	"Na 588.995 nm ppm",
	"Na 589.592 nm ppm",
	"P 177.434 nm ppm",
	"Si 251.611 nm ppm",
	"Sr 407.771 nm ppm",
	"Ti 334.941 nm ppm",
	"Zn 206.200 nm ppm",
}

// TraceElementBases 微量元素导出文件的元素基名（两行表头中上行的带括号标签）。
// 每个基名在下行展开为 Conc. / CPS / ISTD 三个子列。
var TraceElementBases = []string{
	"7 Li [He]",
	"9 Be [He]",
	"51 V [He]",
	"52 Cr [He]",
	"55 Mn [He]",
	"59 Co [He]",
	"60 Ni [He]",
	"63 Cu [He]",
	"65 Cu [He]",
	"66 Zn [He]",
	"75 As [He]",
	"78 Se [He]",
	"107 Ag [He]",
	"111 Cd [He]",
	"114 Cd [He]",
	"137 Ba [He]",
	"205 Tl [He]",
	"208 Pb [He]",
	"238 U [He]",
}

// TraceSubLabels 微量元素两行表头的子列标签，按厂商列序固定
var TraceSubLabels = []string{"Conc.", "CPS", "ISTD"}

// TraceLeadingHeaders 微量元素文件元素列之前的非元素表头
var TraceLeadingHeaders = []string{
	"Sample",
	"Solution Label",
	"Acq. Date-Time",
	"Sample Type",
	"Dil. Factor",
}

// TraceRawHeaders 微量元素导出文件合并后的扁平原始表头模板
var TraceRawHeaders = buildTraceRawHeaders()

func buildTraceRawHeaders() []string {
	headers := make([]string, 0, len(TraceLeadingHeaders)+len(TraceElementBases)*len(TraceSubLabels))
	headers = append(headers, TraceLeadingHeaders...)
	for _, base := range TraceElementBases {
		for _, sub := range TraceSubLabels {
			headers = append(headers, base+" "+sub)
		}
	}
	return headers
}

// RawHeaders 返回指定仪器类型的原始表头模板
func RawHeaders(t InstrumentType) []string {
	if t == InstrumentMajor {
		return MajorRawHeaders
	}
	return TraceRawHeaders
}
