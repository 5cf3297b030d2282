// internal/model/cadence.go
package model

import "time"

// Cadence kinds.
const (
	CadenceDaily   = "daily"
	CadenceWeekly  = "weekly"
	CadenceMonthly = "monthly"
	CadenceCustom  = "custom"
)

// WeekdaySlot is one (weekday, hour, minute) firing point of a custom cadence.
type WeekdaySlot struct {
	Weekday time.Weekday `json:"weekday"`
	Hour    int          `json:"hour"`
	Minute  int          `json:"minute"`
}

// Cadence declares how often a campaign triggers.
//
// daily/weekly/monthly fire at Hour:Minute; weekly additionally uses Weekday
// and monthly uses MonthDay (clamped to the last day of short months).
// custom carries either explicit WeekdaySlots or a cron expression, never both.
type Cadence struct {
	Kind     string       `json:"kind"`
	Hour     int          `json:"hour"`
	Minute   int          `json:"minute"`
	Weekday  time.Weekday `json:"weekday,omitempty"`
	MonthDay int          `json:"month_day,omitempty"`
	Slots    []WeekdaySlot `json:"slots,omitempty"`
	CronExpr string       `json:"cron_expr,omitempty"`
}
