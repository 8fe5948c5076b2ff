package parser

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
)

// FileTextExtractor 把申报文件转为纯文本：.txt 直接读取，其余按 PDF 解析，解析失败时按纯文本兜底。
// 任何失败都返回空文本，不向上抛错。
type FileTextExtractor struct {
	logger *logrus.Logger
}

// NewFileTextExtractor 创建文件文本抽取器
func NewFileTextExtractor(logger *logrus.Logger) *FileTextExtractor {
	return &FileTextExtractor{logger: logger}
}

// ExtractText 返回文件文本；文件不存在或无法解析时 ok=false
func (x *FileTextExtractor) ExtractText(ctx context.Context, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if ctx.Err() != nil {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		x.logger.WithField("path", path).Debug("申报文件不存在，按空文本处理")
		return "", false
	}

	if strings.EqualFold(filepath.Ext(path), ".txt") {
		data, err := os.ReadFile(path)
		if err != nil {
			x.logger.WithError(err).WithField("path", path).Warn("读取文本文件失败")
			return "", false
		}
		return string(data), true
	}

	text, err := readPDF(path)
	if err == nil {
		return text, true
	}
	x.logger.WithError(err).WithField("path", path).Debug("PDF解析失败，尝试按纯文本读取")

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return strings.ToValidUTF8(string(data), ""), true
}

func readPDF(path string) (text string, err error) {
	// ledongthuc/pdf 遇到损坏文件可能 panic
	defer func() {
		if r := recover(); r != nil {
			text, err = "", errPDFPanic
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var errPDFPanic = errors.New("pdf: malformed document")
