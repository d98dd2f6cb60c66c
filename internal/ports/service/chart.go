package service

import (
	"context"

	"github.com/lifecode-app/lifecode-server/internal/domain"
)

// IChartService внешняя charting-библиотека: расчёт карты по данным
// рождения и конвертация лунной даты в солнечную. Чистая функция
// (birth record) -> (chart), внутренний алгоритм непрозрачен.
type IChartService interface {
	CalculateChart(ctx context.Context, record domain.BirthRecord) (domain.Chart, error)

	// LunarToSolar конвертирует лунную дату "Y-M-D" в солнечную.
	// Пол и слот для конвертации не важны и передаются адаптером
	// фиксированными значениями.
	LunarToSolar(ctx context.Context, lunarDate string, leapMonth bool) (*domain.SolarDate, error)
}
