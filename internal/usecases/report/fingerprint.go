package report

import (
	"context"
	"fmt"
	"math"

	"github.com/lifecode-app/lifecode-server/internal/domain"
)

const minutesPerDay = 24 * 60

// clampSlot приводит индекс слота к допустимому диапазону [0, 12]
func clampSlot(slot int) int {
	if slot < 0 {
		return 0
	}
	if slot > domain.SlotCount-1 {
		return domain.SlotCount - 1
	}
	return slot
}

// hourToSlot сопоставляет час (истинного солнечного времени) одному из
// 13 слотов: 0 = 00:00-01:00, 1..11 = двухчасовые окна с 01:00,
// 12 = 23:00-00:00
func hourToSlot(hour int) int {
	switch {
	case hour == 0:
		return 0
	case hour == 23:
		return 12
	default:
		return (hour + 1) / 2
	}
}

// equationOfTime аппроксимация уравнения времени в минутах для
// дня года [1, 366]
func equationOfTime(dayOfYear int) float64 {
	b := 2 * math.Pi * float64(dayOfYear-81) / 364
	return 9.87*math.Sin(2*b) - 7.53*math.Cos(b) - 1.5*math.Sin(b)
}

// solarTimeOffsetMinutes поправка поясного времени до истинного
// солнечного: 4 минуты на градус долготы от меридиана 120°E плюс
// уравнение времени
func solarTimeOffsetMinutes(longitude float64, dayOfYear int) float64 {
	return 4*(longitude-defaultLongitude) + equationOfTime(dayOfYear)
}

// Normalize вычисляет канонический отпечаток записи рождения.
// Никогда не возвращает ошибку: при сбое конвертации деградирует до
// детерминированного best-effort отпечатка.
func (s *Service) Normalize(ctx context.Context, rec domain.BirthRecord) domain.Fingerprint {
	return domain.Fingerprint{
		Date: s.normalizeDate(ctx, rec),
		Slot: s.normalizeSlot(rec),
	}
}

func (s *Service) normalizeDate(ctx context.Context, rec domain.BirthRecord) string {
	if rec.Calendar == domain.CalendarLunar {
		solar, err := s.ChartService.LunarToSolar(ctx, rec.LunarDate, rec.LeapMonth)
		if err != nil {
			// деградация: сырая лунная строка вместо солнечной даты
			s.Log.Warn("lunar to solar conversion failed, using raw lunar date",
				"error", err,
				"lunar_date", rec.LunarDate)
			return rec.LunarDate
		}
		return fmt.Sprintf("%d-%d-%d", solar.Year, solar.Month, solar.Day)
	}

	t := rec.BirthTime
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}

func (s *Service) normalizeSlot(rec domain.BirthRecord) int {
	if rec.TimeMode == domain.TimeModeSlot {
		return clampSlot(rec.SlotIndex)
	}

	// точное время: поправка до истинного солнечного времени по
	// долготе места рождения и дню года
	t := rec.BirthTime
	offset := solarTimeOffsetMinutes(resolveLongitude(rec.Location), t.YearDay())

	minutes := float64(t.Hour()*60+t.Minute()) + offset
	minutes = math.Mod(minutes, minutesPerDay)
	if minutes < 0 {
		minutes += minutesPerDay
	}

	return hourToSlot(int(minutes) / 60)
}
