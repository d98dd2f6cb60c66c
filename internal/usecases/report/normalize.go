package report

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/lifecode-app/lifecode-server/internal/domain"
)

// placeholderText заглушка для недостающих записей: документ всегда
// имеет точную ожидаемую кардинальность
const placeholderText = "暫無內容"

// lifeStageNames имена четырёх жизненных этапов для backfill
var lifeStageNames = [4]string{"少年", "青年", "中年", "晚年"}

const radarFullMark = 100

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		// целые числа без дробной части (годы и т.п.)
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func clampRadarValue(v float64) int {
	if v < 0 {
		return 0
	}
	if v > radarFullMark {
		return radarFullMark
	}
	return int(v)
}

// coerceRadar приводит поле radar к ровно 7 именованным записям в
// фиксированном порядке измерений. Плоский массив из 7 чисел
// разворачивается по порядку; недостающие записи добиваются нулями.
func coerceRadar(raw interface{}) []domain.RadarEntry {
	entries := make([]domain.RadarEntry, 0, domain.RadarEntryCount)

	for _, item := range asSlice(raw) {
		if len(entries) == domain.RadarEntryCount {
			break
		}
		idx := len(entries)

		if f, ok := asFloat(item); ok {
			// плоское число -> именованная запись по позиции
			entries = append(entries, domain.RadarEntry{
				Name:     domain.RadarDimensionNames[idx],
				Value:    clampRadarValue(f),
				FullMark: radarFullMark,
			})
			continue
		}

		m := asMap(item)
		if m == nil {
			continue
		}
		entry := domain.RadarEntry{
			Name:     domain.RadarDimensionNames[idx],
			FullMark: radarFullMark,
		}
		if name := asString(m["name"]); name != "" {
			entry.Name = name
		}
		if f, ok := asFloat(m["value"]); ok {
			entry.Value = clampRadarValue(f)
		}
		entries = append(entries, entry)
	}

	for len(entries) < domain.RadarEntryCount {
		entries = append(entries, domain.RadarEntry{
			Name:     domain.RadarDimensionNames[len(entries)],
			Value:    0,
			FullMark: radarFullMark,
		})
	}
	return entries
}

// coerceLifeStages приводит lifeStages к ровно 4 этапам
func coerceLifeStages(raw interface{}) []domain.LifeStage {
	stages := make([]domain.LifeStage, 0, domain.LifeStageCount)

	for _, item := range asSlice(raw) {
		if len(stages) == domain.LifeStageCount {
			break
		}
		m := asMap(item)
		if m == nil {
			continue
		}
		stage := domain.LifeStage{
			Stage:   asString(m["stage"]),
			Summary: asString(m["summary"]),
		}
		if stage.Stage == "" {
			stage.Stage = lifeStageNames[len(stages)]
		}
		if stage.Summary == "" {
			stage.Summary = placeholderText
		}
		stages = append(stages, stage)
	}

	for len(stages) < domain.LifeStageCount {
		stages = append(stages, domain.LifeStage{
			Stage:   lifeStageNames[len(stages)],
			Summary: placeholderText,
		})
	}
	return stages
}

// coerceYearlyOutlook приводит yearlyOutlook к ровно 3 записям,
// год из числа становится строкой
func coerceYearlyOutlook(raw interface{}, baseYear int) []domain.YearlyOutlook {
	outlook := make([]domain.YearlyOutlook, 0, domain.YearlyEntryCount)

	for _, item := range asSlice(raw) {
		if len(outlook) == domain.YearlyEntryCount {
			break
		}
		m := asMap(item)
		if m == nil {
			continue
		}
		entry := domain.YearlyOutlook{
			Year:    asString(m["year"]),
			Theme:   asString(m["theme"]),
			Summary: asString(m["summary"]),
		}
		if entry.Year == "" {
			entry.Year = strconv.Itoa(baseYear + len(outlook))
		}
		if entry.Theme == "" {
			entry.Theme = placeholderText
		}
		if entry.Summary == "" {
			entry.Summary = placeholderText
		}
		outlook = append(outlook, entry)
	}

	for len(outlook) < domain.YearlyEntryCount {
		outlook = append(outlook, domain.YearlyOutlook{
			Year:    strconv.Itoa(baseYear + len(outlook)),
			Theme:   placeholderText,
			Summary: placeholderText,
		})
	}
	return outlook
}

// NormalizeMainReport применяет покомпонентные коэрции к сырому объекту
// основного отчёта и валидирует результат против схемы. Ошибка схемы -
// терминальная для попытки генерации.
func (s *Service) NormalizeMainReport(raw map[string]interface{}, baseYear int) (*domain.MainReport, error) {
	lucky := asMap(raw["luckyElements"])
	element := asString(lucky["element"])
	if element == "" {
		element = placeholderText
	}

	result := &domain.MainReport{
		Overview:      asString(raw["overview"]),
		Personality:   asString(raw["personality"]),
		Radar:         coerceRadar(raw["radar"]),
		LifeStages:    coerceLifeStages(raw["lifeStages"]),
		YearlyOutlook: coerceYearlyOutlook(raw["yearlyOutlook"], baseYear),
		LuckyElements: domain.MainReportLuckyElements{
			Element:   element,
			Color:     asString(lucky["color"]),
			Direction: asString(lucky["direction"]),
		},
		Advice: asString(raw["advice"]),
	}

	if err := s.Validate.Struct(result); err != nil {
		return nil, fmt.Errorf("main report schema validation failed: %w", err)
	}
	return result, nil
}

// NormalizeDeepReport применяет коэрции к сырому объекту тематического
// отчёта: topic сопоставляется с фиксированным набором и дефолтится,
// rating приводится к [1, 5], секции добиваются до минимума.
func (s *Service) NormalizeDeepReport(raw map[string]interface{}, reportType domain.ReportType) (*domain.DeepReport, error) {
	expectedTopic := domain.DeepReportTopics[reportType]

	topic := asString(raw["topic"])
	if topic != expectedTopic {
		// свободный текст модели не совпал с каноническим значением
		topic = expectedTopic
	}

	rating := 3
	if f, ok := asFloat(raw["rating"]); ok {
		rating = int(f)
		if rating < 1 {
			rating = 1
		}
		if rating > 5 {
			rating = 5
		}
	}

	var sections []domain.DeepReportSection
	for _, item := range asSlice(raw["sections"]) {
		m := asMap(item)
		if m == nil {
			continue
		}
		section := domain.DeepReportSection{
			Title:   asString(m["title"]),
			Content: asString(m["content"]),
		}
		if section.Title == "" {
			section.Title = placeholderText
		}
		if section.Content == "" {
			section.Content = placeholderText
		}
		sections = append(sections, section)
	}
	for len(sections) < 3 {
		sections = append(sections, domain.DeepReportSection{
			Title:   placeholderText,
			Content: placeholderText,
		})
	}

	result := &domain.DeepReport{
		Topic:    topic,
		Overview: asString(raw["overview"]),
		Sections: sections,
		Rating:   rating,
		Advice:   asString(raw["advice"]),
	}

	if err := s.Validate.Struct(result); err != nil {
		return nil, fmt.Errorf("deep report schema validation failed: %w", err)
	}
	return result, nil
}
