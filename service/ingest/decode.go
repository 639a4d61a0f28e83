/*
 * @module service/ingest/decode
 * @description 仪器导出文件的字符集归一化：剥离 UTF-8 BOM，
 *              非法 UTF-8 内容按 Windows-1252 回退解码
 * @architecture 分层架构 - 数据接入层
 * @documentReference ai_docs/ingestion_pipeline.md
 * @stateFlow 原始字节 -> BOM剥离 -> UTF-8校验 -> 必要时转码
 * @rules 解码是尽力而为的前置步骤，不产生校验错误
 * @dependencies golang.org/x/text/encoding/charmap, golang.org/x/text/transform
 * @refs service/ingest/parse.go
 */

package ingest

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeBytes 归一化仪器导出文件的字节内容。
// 部分仪器软件以带 BOM 的 UTF-8 或 Windows-1252 编码写出 CSV。
func DecodeBytes(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data
	}

	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return data
	}
	return decoded
}
