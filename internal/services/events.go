package services

import (
	"sync"
	"time"

	"github.com/fyerfyer/contract-filler/internal/models"
	"github.com/sirupsen/logrus"
)

// 事件日志中使用的步骤名
const (
	StepUpload         = "upload"
	StepTemplate       = "modelo"
	StepNormalize      = "padronizacao"
	StepContractNumber = "numero_contrato"
	StepVocabulary     = "vocabulario"
	StepSubstitution   = "substituicao"
	StepOutput         = "saida"
	StepPipeline       = "processamento"
)

// EventLog 一次执行的事件日志，只追加
// 每条事件同时输出到服务日志
type EventLog struct {
	mu     sync.Mutex
	runID  string
	events []models.Event
	logger *logrus.Logger
	now    func() time.Time
}

func newEventLog(runID string, logger *logrus.Logger) *EventLog {
	return &EventLog{runID: runID, logger: logger, now: time.Now}
}

func (l *EventLog) Info(step, message string, fields map[string]string) {
	l.add(models.EventInfo, step, message, fields)
}

func (l *EventLog) Warn(step, message string, fields map[string]string) {
	l.add(models.EventWarn, step, message, fields)
}

func (l *EventLog) Error(step, message string, fields map[string]string) {
	l.add(models.EventError, step, message, fields)
}

func (l *EventLog) add(level models.EventLevel, step, message string, fields map[string]string) {
	l.mu.Lock()
	event := models.Event{
		Seq:     len(l.events) + 1,
		Step:    step,
		Level:   level,
		Message: message,
		Fields:  fields,
		Time:    l.now(),
	}
	l.events = append(l.events, event)
	l.mu.Unlock()

	entry := l.logger.WithFields(logrus.Fields{
		"run_id": l.runID,
		"step":   step,
		"seq":    event.Seq,
	})
	for k, v := range fields {
		entry = entry.WithField(k, v)
	}
	switch level {
	case models.EventWarn:
		entry.Warn(message)
	case models.EventError:
		entry.Error(message)
	default:
		entry.Info(message)
	}
}

// Events 返回已记录事件的副本
func (l *EventLog) Events() []models.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Event, len(l.events))
	copy(out, l.events)
	return out
}
