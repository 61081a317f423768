package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunStatus 合同执行的处理状态
type RunStatus string

const (
	// RunStatusProcessing 处理中
	RunStatusProcessing RunStatus = "processing"
	// RunStatusCompleted 已完成，合同文件已保存
	RunStatusCompleted RunStatus = "completed"
	// RunStatusFailed 执行失败
	RunStatusFailed RunStatus = "failed"
)

// ContractRun 一次合同填充的执行记录
type ContractRun struct {
	ID             string         `gorm:"primaryKey;size:36"`
	Status         RunStatus      `gorm:"size:20;not null;index"`
	Gender         string         `gorm:"size:20"`
	TemplateName   string         `gorm:"size:255"`
	ContractNumber string         `gorm:"size:64;index"`
	OutputFileID   string         `gorm:"size:64"`
	OutputPath     string         `gorm:"size:512"`
	OutputSize     int64          `gorm:"not null;default:0"`
	Error          string         `gorm:"type:text"`
	Events         datatypes.JSON `gorm:"type:json"`
	Fields         datatypes.JSON `gorm:"type:json"` // 按提取器类型保存的字段值
	StartedAt      time.Time      `gorm:"not null;index"`
	FinishedAt     *time.Time     `gorm:"index"`
	UpdatedAt      time.Time      `gorm:"not null"`
}

// BeforeCreate 创建前设置开始时间
func (r *ContractRun) BeforeCreate(tx *gorm.DB) error {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	r.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate 更新前刷新 UpdatedAt
func (r *ContractRun) BeforeUpdate(tx *gorm.DB) error {
	r.UpdatedAt = time.Now()
	return nil
}

func (ContractRun) TableName() string {
	return "contract_runs"
}

// SetEvents 保存执行的事件日志
func (r *ContractRun) SetEvents(events []Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	r.Events = datatypes.JSON(data)
	return nil
}

// EventLog 解析保存的事件日志
func (r *ContractRun) EventLog() ([]Event, error) {
	var events []Event
	if len(r.Events) == 0 {
		return events, nil
	}
	err := json.Unmarshal(r.Events, &events)
	return events, err
}

// SetFields 保存提取的字段值，按提取器类型和字段名组织
func (r *ContractRun) SetFields(fields map[string]map[string]string) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	r.Fields = datatypes.JSON(data)
	return nil
}

// FieldValues 解析保存的字段值
func (r *ContractRun) FieldValues() (map[string]map[string]string, error) {
	fields := make(map[string]map[string]string)
	if len(r.Fields) == 0 {
		return fields, nil
	}
	err := json.Unmarshal(r.Fields, &fields)
	return fields, err
}
