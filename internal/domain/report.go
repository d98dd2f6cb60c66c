package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReportType тип отчёта
type ReportType string

const (
	ReportTypeMain   ReportType = "main"
	ReportTypeCareer ReportType = "career"
	ReportTypeWealth ReportType = "wealth"
	ReportTypeLove   ReportType = "love"
	ReportTypeHealth ReportType = "health"
)

func (t ReportType) IsValid() bool {
	switch t {
	case ReportTypeMain, ReportTypeCareer, ReportTypeWealth, ReportTypeLove, ReportTypeHealth:
		return true
	}
	return false
}

// IsDeep глубокие (тематические) отчёты — все кроме основного
func (t ReportType) IsDeep() bool {
	return t.IsValid() && t != ReportTypeMain
}

// JobStatus статус джобы генерации отчёта
// pending -> running -> processing -> {completed, failed}
// Терминальные статусы не пересматриваются.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusRunning    JobStatus = "running"
	JobStatusProcessing JobStatus = "processing" // забрана внешним воркером
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ReportJob одна джоба генерации отчёта (in-flight или завершённая)
type ReportJob struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	ArchiveID    uuid.UUID  `json:"archive_id" db:"archive_id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	ReportType   ReportType `json:"report_type" db:"report_type"`
	Status       JobStatus  `json:"status" db:"status"`
	FreeRetry    bool       `json:"free_retry" db:"free_retry"` // ретрай без списания энергии
	ErrorMessage *string    `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// ReportContent валидированный документ отчёта (JSONB) с поддержкой sql.Scanner
type ReportContent json.RawMessage

func (c *ReportContent) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*c = append((*c)[:0], v...)
	case string:
		*c = ReportContent(v)
	default:
		return fmt.Errorf("unsupported type for ReportContent: %T", value)
	}
	return nil
}

func (c ReportContent) Value() (driver.Value, error) {
	if len(c) == 0 {
		return nil, nil
	}
	return []byte(c), nil
}

func (c ReportContent) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return c, nil
}

func (c *ReportContent) UnmarshalJSON(data []byte) error {
	*c = append((*c)[:0], data...)
	return nil
}

// Report сгенерированный отчёт. Иммутабелен после сохранения,
// не более одного текущего отчёта на пару (архив, тип).
type Report struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	ArchiveID  uuid.UUID     `json:"archive_id" db:"archive_id"`
	ReportType ReportType    `json:"report_type" db:"report_type"`
	Content    ReportContent `json:"content" db:"content"`
	Model      string        `json:"model" db:"model"`
	ReusedFrom *uuid.UUID    `json:"reused_from,omitempty" db:"reused_from"` // архив-источник при переиспользовании
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}

// RadarDimensionNames фиксированный порядок измерений радара основного отчёта.
// Плоский массив из 7 чисел от LLM разворачивается в записи в этом порядке.
var RadarDimensionNames = [7]string{
	"事業", "財富", "感情", "健康", "人際", "智慧", "家庭",
}

const (
	RadarEntryCount  = 7
	LifeStageCount   = 4
	YearlyEntryCount = 3
)

// RadarEntry одно измерение радара, value в [0, 100]
type RadarEntry struct {
	Name     string `json:"name" validate:"required"`
	Value    int    `json:"value" validate:"min=0,max=100"`
	FullMark int    `json:"fullMark"`
}

// LifeStage один из четырёх жизненных этапов
type LifeStage struct {
	Stage   string `json:"stage" validate:"required"`
	Summary string `json:"summary" validate:"required"`
}

// YearlyOutlook прогноз на один год
type YearlyOutlook struct {
	Year    string `json:"year" validate:"required"`
	Theme   string `json:"theme" validate:"required"`
	Summary string `json:"summary" validate:"required"`
}

// MainReportLuckyElements благоприятные элементы
type MainReportLuckyElements struct {
	Element   string `json:"element" validate:"required"`
	Color     string `json:"color"`
	Direction string `json:"direction"`
}

// MainReport структура основного отчёта. Схема фиксирована:
// ровно 7 записей радара, 4 этапа, 3 годовых прогноза.
type MainReport struct {
	Overview      string                  `json:"overview" validate:"required"`
	Personality   string                  `json:"personality" validate:"required"`
	Radar         []RadarEntry            `json:"radar" validate:"len=7,dive"`
	LifeStages    []LifeStage             `json:"lifeStages" validate:"len=4,dive"`
	YearlyOutlook []YearlyOutlook         `json:"yearlyOutlook" validate:"len=3,dive"`
	LuckyElements MainReportLuckyElements `json:"luckyElements"`
	Advice        string                  `json:"advice" validate:"required"`
}

// DeepReportSection один раздел тематического отчёта
type DeepReportSection struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// DeepReport структура тематического (платного) отчёта
type DeepReport struct {
	Topic    string              `json:"topic" validate:"required"`
	Overview string              `json:"overview" validate:"required"`
	Sections []DeepReportSection `json:"sections" validate:"min=3,dive"`
	Rating   int                 `json:"rating" validate:"min=1,max=5"`
	Advice   string              `json:"advice" validate:"required"`
}

// DeepReportTopics допустимые значения поля topic по типам отчётов.
// Свободный текст от LLM сопоставляется с этим набором, при отсутствии
// совпадения берётся значение по умолчанию для типа.
var DeepReportTopics = map[ReportType]string{
	ReportTypeCareer: "事業運勢",
	ReportTypeWealth: "財富運勢",
	ReportTypeLove:   "感情運勢",
	ReportTypeHealth: "健康運勢",
}
