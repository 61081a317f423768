package models

import "time"

// EventLevel 事件级别
type EventLevel string

const (
	EventInfo  EventLevel = "info"
	EventWarn  EventLevel = "warn"
	EventError EventLevel = "error"
)

// Event 合同执行日志中的一条事件，Seq 从1开始，按记录顺序递增
type Event struct {
	Seq     int               `json:"seq"`
	Step    string            `json:"step"`
	Level   EventLevel        `json:"level"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Time    time.Time         `json:"time"`
}
