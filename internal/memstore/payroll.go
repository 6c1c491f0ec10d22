package memstore

import (
	"context"
	"fmt"

	"github.com/danmuck/shiftctl/internal/calendar"
)

// PayrollInput is everything a payroll calculation may look at for one
// month. Schedule and Revenue have one entry per calendar day.
type PayrollInput struct {
	Year     uint16
	Month    uint8
	Users    []User
	Schedule map[uint64][]bool
	Revenue  []DayRevenue
}

// Payslip is one user's pay for a month, split into the two half-month
// periods. Paid is what was already paid out.
type Payslip struct {
	UserID     uint64
	First      float64
	FirstDays  uint8
	Second     float64
	SecondDays uint8
	Paid       float64
}

// Total is the month's pay across both periods.
func (p Payslip) Total() float64 {
	return p.First + p.Second
}

// Payroll computes a month's payslips. The arithmetic belongs to the
// business layer; the store only gathers its inputs.
type Payroll interface {
	Calculate(ctx context.Context, in PayrollInput) ([]Payslip, error)
}

// PayrollFunc adapts a function into a Payroll.
type PayrollFunc func(ctx context.Context, in PayrollInput) ([]Payslip, error)

func (f PayrollFunc) Calculate(ctx context.Context, in PayrollInput) ([]Payslip, error) {
	return f(ctx, in)
}

// Payslips runs the configured Payroll over the month's stored data.
func (s *Store) Payslips(ctx context.Context, year uint16, month uint8) ([]Payslip, error) {
	if s.payroll == nil {
		return nil, ErrNoPayroll
	}
	sched, err := s.Schedule(ctx, year, month)
	if err != nil {
		return nil, err
	}
	byDay, err := s.Revenue(ctx, year, month)
	if err != nil {
		return nil, err
	}
	revenue := make([]DayRevenue, calendar.DaysIn(year, month))
	for day, r := range byDay {
		revenue[day-1] = r
	}
	in := PayrollInput{
		Year:     year,
		Month:    month,
		Users:    s.Users(ctx),
		Schedule: sched,
		Revenue:  revenue,
	}
	slips, err := s.payroll.Calculate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("memstore: payroll %04d-%02d: %w", year, month, err)
	}
	return slips, nil
}
