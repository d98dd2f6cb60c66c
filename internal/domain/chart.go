package domain

import "encoding/json"

// Chart объект карты (Zi Wei Dou Shu / BaZi) от внешней charting-библиотеки.
// Хранится как raw JSON: внутренняя структура дворцов и звёзд
// нам непрозрачна, мы лишь передаём её в промпт LLM.
type Chart json.RawMessage

func (c Chart) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return c, nil
}

func (c *Chart) UnmarshalJSON(data []byte) error {
	*c = append((*c)[:0], data...)
	return nil
}

// SolarDate результат конвертации лунной даты в солнечную
type SolarDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}
