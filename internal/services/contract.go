package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fyerfyer/contract-filler/internal/cache"
	"github.com/fyerfyer/contract-filler/internal/document"
	"github.com/fyerfyer/contract-filler/internal/docx"
	"github.com/fyerfyer/contract-filler/internal/extract"
	"github.com/fyerfyer/contract-filler/internal/models"
	"github.com/fyerfyer/contract-filler/internal/repository"
	"github.com/fyerfyer/contract-filler/internal/template"
	"github.com/fyerfyer/contract-filler/pkg/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultOutputName 填充后合同的文件名
	DefaultOutputName = "contrato_preenchido.docx"
	// NormalizedTemplateName 标准化模板的文件名
	NormalizedTemplateName = "modelo_padronizado.docx"

	downloadKeyPrefix = "download"
)

// Upload 上传的文件，Reader 只能读取一次
type Upload struct {
	Filename string
	Reader   io.Reader
}

// FillRequest 合同填充请求：模板、各类证明文件和当事人性别
type FillRequest struct {
	Gender template.Gender
	Files  map[Slot]Upload
}

// FillResult 执行结果
// 失败时 Document 和 Output 为nil，Events 的最后一条是错误
type FillResult struct {
	RunID          string
	ContractNumber string // 模板页脚中没有合同编号时为空
	Fields         map[extract.Kind]extract.FieldMap
	Unresolved     []string // 输出中未填充的占位符
	Events         []models.Event
	Output         *storage.FileInfo
	Document       []byte
}

// ContractService 合同填充服务
type ContractService struct {
	storage     storage.Storage
	cache       cache.Cache
	repo        repository.RunRepository
	status      *RunStatusManager
	normalizer  *template.Normalizer
	workDir     string
	outputName  string
	downloadTTL time.Duration
	logger      *logrus.Logger
}

// ContractOption 合同服务配置选项
type ContractOption func(*ContractService)

// NewContractService 创建合同服务，生成的合同保存到 store
func NewContractService(store storage.Storage, opts ...ContractOption) *ContractService {
	srv := &ContractService{
		storage:     store,
		normalizer:  template.NewNormalizer(),
		outputName:  DefaultOutputName,
		downloadTTL: 24 * time.Hour,
		logger:      logrus.New(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.status = NewRunStatusManager(srv.repo, srv.logger)
	return srv
}

func WithLogger(logger *logrus.Logger) ContractOption {
	return func(s *ContractService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache 启用下载凭证，不设置时下载永不过期
func WithCache(c cache.Cache) ContractOption {
	return func(s *ContractService) {
		s.cache = c
	}
}

// WithRunRepository 设置执行记录仓储
func WithRunRepository(repo repository.RunRepository) ContractOption {
	return func(s *ContractService) {
		s.repo = repo
	}
}

// WithWorkDir 设置每次执行的工作目录所在的父目录，默认为系统临时目录
func WithWorkDir(dir string) ContractOption {
	return func(s *ContractService) {
		s.workDir = dir
	}
}

func WithOutputName(name string) ContractOption {
	return func(s *ContractService) {
		if name != "" {
			s.outputName = name
		}
	}
}

func WithDownloadTTL(ttl time.Duration) ContractOption {
	return func(s *ContractService) {
		if ttl > 0 {
			s.downloadTTL = ttl
		}
	}
}

func WithNormalizer(n *template.Normalizer) ContractOption {
	return func(s *ContractService) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// OutputName 生成合同的下载文件名
func (s *ContractService) OutputName() string {
	return s.outputName
}

// RecordsRuns 是否保存执行记录
// 没有仓储时 GetRun 和 OpenOutput 查不到任何记录，合同只能在填充请求中直接返回
func (s *ContractService) RecordsRuns() bool {
	return s.repo != nil
}

func (r FillRequest) validate() error {
	for _, slot := range Slots() {
		upload, ok := r.Files[slot]
		if !ok || upload.Reader == nil {
			return fmt.Errorf("%w: %s", models.ErrMissingDocument, slot)
		}
		if err := checkType(slot == SlotTemplate, upload.Filename); err != nil {
			return fmt.Errorf("%s: %w", slot, err)
		}
	}
	return nil
}

func checkType(wantDocx bool, filename string) error {
	contentType := document.DetectContentType(filename)
	if contentType == document.Unknown || (wantDocx && contentType != document.DOCX) {
		return fmt.Errorf("%w: %s", models.ErrInvalidDocumentType, filename)
	}
	return nil
}

// Fill 填充合同
// 依次标准化模板、从模板页脚读取合同编号、提取各证明文件的字段，再按步骤替换模板中的占位符
// 生成的合同会保存下来并发放下载凭证
//
// 缺失的字段只记录警告，不会导致失败
// 文档无法解析时返回 *models.DocumentParseError 并中止执行，此时返回的结果中包含事件日志
func (s *ContractService) Fill(ctx context.Context, req FillRequest) (*FillResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.Gender == "" {
		req.Gender = template.Male
	}

	runID := uuid.New().String()
	events := newEventLog(runID, s.logger)
	result := &FillResult{
		RunID:  runID,
		Fields: make(map[extract.Kind]extract.FieldMap),
	}

	run := &models.ContractRun{
		ID:           runID,
		Gender:       string(req.Gender),
		TemplateName: req.Files[SlotTemplate].Filename,
	}
	if err := s.status.MarkAsProcessing(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	data, err := s.fill(ctx, runID, req, events, result)
	if err == nil {
		err = s.store(ctx, runID, data, events, result)
	}
	if err != nil {
		events.Error(StepPipeline, "Processamento interrompido", map[string]string{"erro": err.Error()})
		result.Events = events.Events()
		result.Output = nil

		outcome := RunOutcome{ContractNumber: result.ContractNumber, Fields: result.Fields, Events: result.Events}
		if markErr := s.status.MarkAsFailed(context.WithoutCancel(ctx), runID, err, outcome); markErr != nil {
			s.logger.WithError(markErr).WithField("run_id", runID).Error("Failed to mark run as failed")
		}
		return result, err
	}

	result.Document = data
	result.Events = events.Events()
	outcome := RunOutcome{
		ContractNumber: result.ContractNumber,
		Output:         result.Output,
		Fields:         result.Fields,
		Events:         result.Events,
	}
	if err := s.status.MarkAsCompleted(context.WithoutCancel(ctx), runID, outcome); err != nil {
		return result, fmt.Errorf("failed to record run: %w", err)
	}
	return result, nil
}

func (s *ContractService) fill(ctx context.Context, runID string, req FillRequest, events *EventLog, result *FillResult) ([]byte, error) {
	workDir, err := os.MkdirTemp(s.workDir, "contract-"+runID+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer s.removeWorkDir(workDir)

	paths := make(map[Slot]string, len(req.Files))
	for _, slot := range Slots() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := saveUpload(workDir, string(slot), req.Files[slot])
		if err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", slot, err)
		}
		paths[slot] = path
	}
	events.Info(StepUpload, "Documentos recebidos", map[string]string{"quantidade": strconv.Itoa(len(paths))})

	templateName := req.Files[SlotTemplate].Filename
	original, err := docx.OpenFile(paths[SlotTemplate])
	if err != nil {
		return nil, &models.DocumentParseError{Slot: string(SlotTemplate), File: templateName, Err: err}
	}
	events.Info(StepTemplate, "Modelo carregado", map[string]string{"arquivo": templateName})

	normalized, report := s.normalizer.Normalize(original)
	events.Info(StepNormalize, "Modelo padronizado", map[string]string{"rotulos": strconv.Itoa(report.Total())})

	contract, err := extract.Extract(extract.KindContractTemplate, original.Text(docx.Footer))
	if err != nil {
		return nil, err
	}
	result.Fields[extract.KindContractTemplate] = contract
	result.ContractNumber = contract[extract.FieldContractNumber]
	if result.ContractNumber == "" {
		events.Warn(StepContractNumber, "Número do contrato não encontrado no rodapé do modelo", nil)
	} else {
		events.Info(StepContractNumber, "Número do contrato encontrado", map[string]string{"numero": result.ContractNumber})
	}

	for _, slot := range SourceSlots() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.extractSlot(slot, paths[slot], req.Files[slot].Filename, events, result); err != nil {
			return nil, err
		}
	}

	if unknown := template.UnknownTokens(normalized); len(unknown) > 0 {
		events.Warn(StepVocabulary, "Campos desconhecidos no modelo", map[string]string{"campos": strings.Join(unknown, ", ")})
	}

	steps := BuildSteps(req.Gender, result.Fields, result.ContractNumber)
	filled, err := Fold(ctx, normalized, steps, func(step Step, report template.SubstitutionReport) {
		events.Info(StepSubstitution, "Substituições aplicadas", map[string]string{
			"etapa":         step.Name,
			"substituicoes": strconv.Itoa(report.Total()),
		})
	})
	if err != nil {
		return nil, err
	}
	result.Unresolved = template.Tokens(filled)

	data, err := filled.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize contract: %w", err)
	}
	return data, nil
}

func (s *ContractService) extractSlot(slot Slot, path, filename string, events *EventLog, result *FillResult) error {
	text, err := parseFile(path)
	if err != nil {
		return &models.DocumentParseError{Slot: string(slot), File: filename, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		events.Warn(string(slot), "Nenhum texto encontrado no documento", map[string]string{"arquivo": filename})
	}

	for _, kind := range slotKinds[slot] {
		fields, err := extract.Extract(kind, text)
		if err != nil {
			return err
		}
		result.Fields[kind] = fields

		found := strconv.Itoa(fields.Found())
		if missing := fields.Missing(); len(missing) > 0 {
			events.Warn(string(kind), "Campos não encontrados", map[string]string{
				"campos":      strings.Join(missing, ", "),
				"encontrados": found,
			})
			continue
		}
		events.Info(string(kind), "Campos extraídos", map[string]string{"encontrados": found})
	}
	return nil
}

func (s *ContractService) store(ctx context.Context, runID string, data []byte, events *EventLog, result *FillResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := s.storage.Save(ctx, bytes.NewReader(data), s.outputName)
	if err != nil {
		return fmt.Errorf("failed to store contract: %w", err)
	}
	result.Output = &info

	if s.cache != nil {
		if err := s.cache.Set(downloadKey(runID), info.Path, s.downloadTTL); err != nil {
			return fmt.Errorf("failed to create download ticket: %w", err)
		}
	}

	events.Info(StepOutput, "Contrato gerado", map[string]string{
		"arquivo": s.outputName,
		"tamanho": strconv.FormatInt(info.Size, 10),
	})
	return nil
}

func (s *ContractService) removeWorkDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		s.logger.WithError(err).WithField("dir", dir).Warn("Failed to remove work directory")
	}
}

// saveUpload 将上传文件以slot命名保存到dir中，保留原扩展名
func saveUpload(dir, slot string, upload Upload) (string, error) {
	path := filepath.Join(dir, slot+strings.ToLower(filepath.Ext(upload.Filename)))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(file, upload.Reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

func parseFile(path string) (string, error) {
	parser, err := document.ParserFactory(path)
	if err != nil {
		return "", err
	}
	return parser.Parse(path)
}

func downloadKey(runID string) string {
	return cache.GenerateCacheKey(downloadKeyPrefix, runID)
}
