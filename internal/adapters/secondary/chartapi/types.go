package chartapi

import "encoding/json"

// ChartRequest запрос расчёта карты (Zi Wei Dou Shu / BaZi)
type ChartRequest struct {
	Gender    string `json:"gender"`
	Calendar  string `json:"calendar"`
	Date      string `json:"date"`       // "Y-M-D"
	LeapMonth bool   `json:"leap_month"` // только для lunar
	SlotIndex int    `json:"slot_index"` // двухчасовой слот [0,12]
}

// ChartResponse ответ с данными дворцов и звёзд; структура непрозрачна,
// прокидывается в промпт как есть
type ChartResponse struct {
	Chart json.RawMessage `json:"chart"`
}

// LunarToSolarRequest запрос конвертации лунной даты
type LunarToSolarRequest struct {
	LunarDate string `json:"lunar_date"` // "Y-M-D"
	LeapMonth bool   `json:"leap_month"`
	Gender    string `json:"gender"`     // для конвертации не важен, фиксированный placeholder
	SlotIndex int    `json:"slot_index"` // аналогично
}

// LunarToSolarResponse солнечный эквивалент лунной даты
type LunarToSolarResponse struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}
