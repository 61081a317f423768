package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fyerfyer/contract-filler/internal/extract"
	"github.com/fyerfyer/contract-filler/internal/models"
	"github.com/fyerfyer/contract-filler/internal/repository"
	"github.com/fyerfyer/contract-filler/pkg/storage"
	"github.com/sirupsen/logrus"
)

// RunOutcome 执行结束后保存的结果
type RunOutcome struct {
	ContractNumber string
	Output         *storage.FileInfo
	Fields         map[extract.Kind]extract.FieldMap
	Events         []models.Event
}

// RunStatusManager 执行状态管理器
// 没有仓储时不保存记录，所有调用直接成功
type RunStatusManager struct {
	repo   repository.RunRepository
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewRunStatusManager 创建状态管理器
func NewRunStatusManager(repo repository.RunRepository, logger *logrus.Logger) *RunStatusManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &RunStatusManager{repo: repo, logger: logger}
}

// MarkAsProcessing 记录新的执行，状态为处理中
func (m *RunStatusManager) MarkAsProcessing(ctx context.Context, run *models.ContractRun) error {
	if m.repo == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	run.Status = models.RunStatusProcessing
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	m.logger.WithFields(logrus.Fields{
		"run_id":   run.ID,
		"template": run.TemplateName,
	}).Info("Marking run as processing")
	return m.repo.Create(run)
}

// MarkAsCompleted 标记为已完成并保存结果
func (m *RunStatusManager) MarkAsCompleted(ctx context.Context, runID string, outcome RunOutcome) error {
	return m.finish(runID, models.RunStatusCompleted, "", outcome)
}

// MarkAsFailed 标记为失败，保存失败原因和已有的结果
func (m *RunStatusManager) MarkAsFailed(ctx context.Context, runID string, cause error, outcome RunOutcome) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return m.finish(runID, models.RunStatusFailed, msg, outcome)
}

func (m *RunStatusManager) finish(runID string, status models.RunStatus, errMsg string, outcome RunOutcome) error {
	if m.repo == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	run, err := m.repo.GetByID(runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if run.Status != models.RunStatusProcessing {
		return fmt.Errorf("invalid state transition: run %s is in %s state, expected %s",
			runID, run.Status, models.RunStatusProcessing)
	}

	finished := time.Now()
	run.Status = status
	run.Error = errMsg
	run.FinishedAt = &finished
	run.ContractNumber = outcome.ContractNumber
	if outcome.Output != nil {
		run.OutputFileID = outcome.Output.ID
		run.OutputPath = outcome.Output.Path
		run.OutputSize = outcome.Output.Size
	}
	if err := run.SetEvents(outcome.Events); err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}
	if err := run.SetFields(fieldsByKind(outcome.Fields)); err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"status": status,
	}).Info("Marking run as finished")
	return m.repo.Update(run)
}

func fieldsByKind(fields map[extract.Kind]extract.FieldMap) map[string]map[string]string {
	out := make(map[string]map[string]string, len(fields))
	for kind, values := range fields {
		out[string(kind)] = values
	}
	return out
}
