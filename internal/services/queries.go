package services

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fyerfyer/contract-filler/internal/docx"
	"github.com/fyerfyer/contract-filler/internal/extract"
	"github.com/fyerfyer/contract-filler/internal/models"
	"github.com/fyerfyer/contract-filler/internal/repository"
	"github.com/fyerfyer/contract-filler/internal/template"
	"github.com/sirupsen/logrus"
)

// GetRun 获取执行记录
func (s *ContractService) GetRun(ctx context.Context, runID string) (*models.ContractRun, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrRunNotFound, runID)
	}
	return s.repo.GetByID(runID)
}

// ListRuns 分页获取执行记录，按时间倒序，page 从1开始
func (s *ContractService) ListRuns(ctx context.Context, page, pageSize int, status models.RunStatus) ([]*models.ContractRun, int64, error) {
	if s.repo == nil {
		return nil, 0, nil
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return s.repo.List((page-1)*pageSize, pageSize, repository.RunFilter{Status: status})
}

// OpenOutput 打开执行生成的合同
// 下载凭证过期后返回 models.ErrDownloadExpired
func (s *ContractService) OpenOutput(ctx context.Context, runID string) (io.ReadCloser, *models.ContractRun, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	if run.Status != models.RunStatusCompleted || run.OutputPath == "" {
		return nil, run, fmt.Errorf("%w: %s is %s", models.ErrRunNotCompleted, runID, run.Status)
	}

	if s.cache != nil {
		_, found, err := s.cache.Get(downloadKey(runID))
		if err != nil {
			return nil, run, fmt.Errorf("failed to check download ticket: %w", err)
		}
		if !found {
			return nil, run, fmt.Errorf("%w: %s", models.ErrDownloadExpired, runID)
		}
	}

	rc, err := s.storage.Open(ctx, run.OutputPath)
	if err != nil {
		return nil, run, fmt.Errorf("failed to open contract: %w", err)
	}
	return rc, run, nil
}

// ExtractResult 单文档提取结果
type ExtractResult struct {
	Kind    extract.Kind
	Fields  extract.FieldMap
	Missing []string
}

// ExtractFile 按kind提取单个上传文档的字段
// 合同编号从.docx模板的页脚读取
func (s *ContractService) ExtractFile(ctx context.Context, kind extract.Kind, upload Upload) (*ExtractResult, error) {
	if _, err := extract.For(kind); err != nil {
		return nil, err
	}
	if upload.Reader == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingDocument, kind)
	}
	if err := checkType(kind == extract.KindContractTemplate, upload.Filename); err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp(s.workDir, "extract-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer s.removeWorkDir(workDir)

	path, err := saveUpload(workDir, "documento", upload)
	if err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	var text string
	if kind == extract.KindContractTemplate {
		doc, err := docx.OpenFile(path)
		if err != nil {
			return nil, &models.DocumentParseError{Slot: string(kind), File: upload.Filename, Err: err}
		}
		text = doc.Text(docx.Footer)
	} else {
		text, err = parseFile(path)
		if err != nil {
			return nil, &models.DocumentParseError{Slot: string(kind), File: upload.Filename, Err: err}
		}
	}

	fields, err := extract.Extract(kind, text)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"kind":  kind,
		"file":  upload.Filename,
		"found": fields.Found(),
	}).Info("Document extracted")

	return &ExtractResult{Kind: kind, Fields: fields, Missing: fields.Missing()}, nil
}

// NormalizeResult 标准化后的模板
type NormalizeResult struct {
	Document []byte
	Report   template.NormalizeReport
	Tokens   []string
	Unknown  []string
}

// NormalizeTemplate 将上传模板中的标签改写为占位符，返回新文档
func (s *ContractService) NormalizeTemplate(ctx context.Context, upload Upload) (*NormalizeResult, error) {
	if upload.Reader == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingDocument, SlotTemplate)
	}
	if err := checkType(true, upload.Filename); err != nil {
		return nil, err
	}

	doc, err := docx.Read(upload.Reader)
	if err != nil {
		return nil, &models.DocumentParseError{Slot: string(SlotTemplate), File: upload.Filename, Err: err}
	}
	normalized, report := s.normalizer.Normalize(doc)

	data, err := normalized.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize template: %w", err)
	}
	return &NormalizeResult{
		Document: data,
		Report:   report,
		Tokens:   template.Tokens(normalized),
		Unknown:  template.UnknownTokens(normalized),
	}, nil
}
