package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Gender пол владельца карты
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Calendar календарная система, в которой указана дата рождения
type Calendar string

const (
	CalendarSolar Calendar = "solar"
	CalendarLunar Calendar = "lunar"
)

func (c Calendar) IsValid() bool {
	return c == CalendarSolar || c == CalendarLunar
}

// TimeMode способ указания времени рождения: точное время с местом
// или индекс традиционного двухчасового слота
type TimeMode string

const (
	TimeModeExact TimeMode = "exact"
	TimeModeSlot  TimeMode = "slot"
)

func (m TimeMode) IsValid() bool {
	return m == TimeModeExact || m == TimeModeSlot
}

// SlotCount количество двухчасовых слотов: слот 0 = 00:00-01:00,
// слоты 1-11 = двухчасовые окна с 01:00, слот 12 = 23:00-00:00
const SlotCount = 13

// BirthRecord данные рождения в одном из четырёх входных форматов
// (solar/lunar x exact/slot)
type BirthRecord struct {
	Gender    Gender    `json:"gender"`
	Calendar  Calendar  `json:"calendar"`
	BirthTime time.Time `json:"birth_time"`           // для calendar=solar
	LunarDate string    `json:"lunar_date,omitempty"` // "Y-M-D", для calendar=lunar
	LeapMonth bool      `json:"leap_month,omitempty"`
	TimeMode  TimeMode  `json:"time_mode"`
	SlotIndex int       `json:"slot_index,omitempty"` // для time_mode=slot
	Location  string    `json:"location,omitempty"`   // для time_mode=exact
}

// Validate проверяет инварианты входных форматов:
// lunar требует lunar_date, exact требует location
func (b *BirthRecord) Validate() error {
	if !b.Gender.IsValid() {
		return fmt.Errorf("invalid gender: %s", b.Gender)
	}
	if !b.Calendar.IsValid() {
		return fmt.Errorf("invalid calendar: %s", b.Calendar)
	}
	if !b.TimeMode.IsValid() {
		return fmt.Errorf("invalid time mode: %s", b.TimeMode)
	}
	if b.Calendar == CalendarLunar && b.LunarDate == "" {
		return fmt.Errorf("lunar calendar requires lunar_date")
	}
	if b.TimeMode == TimeModeExact && b.Location == "" {
		return fmt.Errorf("exact time mode requires location")
	}
	return nil
}

// Fingerprint нормализованный отпечаток рождения: каноническая пара
// (дата, индекс слота). Два архива с одинаковым отпечатком и полом
// описывают одну и ту же карту и могут разделять сгенерированный отчёт.
type Fingerprint struct {
	Date string `json:"date" db:"fp_date"` // "Y-M-D" без ведущих нулей
	Slot int    `json:"slot" db:"fp_slot"` // [0, 12]
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%s#%d", f.Date, f.Slot)
}

// Archive запись рождения одного человека, принадлежащая пользователю.
// Единица, против которой генерируются отчёты.
type Archive struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Gender    Gender    `json:"gender" db:"gender"`
	Calendar  Calendar  `json:"calendar" db:"calendar"`
	BirthTime time.Time `json:"birth_time" db:"birth_time"`
	LunarDate *string   `json:"lunar_date,omitempty" db:"lunar_date"`
	LeapMonth bool      `json:"leap_month" db:"leap_month"`
	TimeMode  TimeMode  `json:"time_mode" db:"time_mode"`
	SlotIndex int       `json:"slot_index" db:"slot_index"`
	Location  *string   `json:"location,omitempty" db:"location"`
	FpDate    string    `json:"fp_date" db:"fp_date"`
	FpSlot    int       `json:"fp_slot" db:"fp_slot"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BirthRecord восстанавливает входную запись рождения из архива
func (a *Archive) BirthRecord() BirthRecord {
	rec := BirthRecord{
		Gender:    a.Gender,
		Calendar:  a.Calendar,
		BirthTime: a.BirthTime,
		LeapMonth: a.LeapMonth,
		TimeMode:  a.TimeMode,
		SlotIndex: a.SlotIndex,
	}
	if a.LunarDate != nil {
		rec.LunarDate = *a.LunarDate
	}
	if a.Location != nil {
		rec.Location = *a.Location
	}
	return rec
}

// Fingerprint возвращает сохранённый отпечаток архива
func (a *Archive) Fingerprint() Fingerprint {
	return Fingerprint{Date: a.FpDate, Slot: a.FpSlot}
}
