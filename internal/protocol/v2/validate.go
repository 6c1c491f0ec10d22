package v2

import (
	"errors"
	"fmt"
	"math"

	"github.com/danmuck/shiftctl/internal/calendar"
)

var (
	ErrInvalidMonth    = errors.New("v2: month out of range")
	ErrInvalidDay      = errors.New("v2: day out of range")
	ErrInvalidAmount   = errors.New("v2: amount must be finite")
	ErrNegativeAmount  = errors.New("v2: amount must not be negative")
	ErrScheduleLength  = errors.New("v2: schedule length does not match month")
	ErrRevenueLength   = errors.New("v2: revenue length does not match month")
	ErrInvalidPeriod   = errors.New("v2: salary period days exceed a month")
	ErrMissingResponse = errors.New("v2: response has neither data nor error")
)

func checkMonth(month uint8) error {
	if !calendar.ValidMonth(month) {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return nil
}

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s=%v", ErrInvalidAmount, name, v)
	}
	return nil
}

func checkNonNegative(name string, v float64) error {
	if err := checkFinite(name, v); err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("%w: %s=%v", ErrNegativeAmount, name, v)
	}
	return nil
}

// checkMonthSequence enforces one entry per calendar day. allowEmpty admits a
// month without records.
func checkMonthSequence(year uint16, month uint8, n int, allowEmpty bool) error {
	if err := checkMonth(month); err != nil {
		return err
	}
	if allowEmpty && n == 0 {
		return nil
	}
	if days := calendar.DaysIn(year, month); n != days {
		return fmt.Errorf("%w: %04d-%02d got=%d want=%d", ErrRevenueLength, year, month, n, days)
	}
	return nil
}

func (u User) Validate() error {
	if err := checkNonNegative("pay", u.Pay); err != nil {
		return err
	}
	return checkNonNegative("percent", u.Percent)
}

func (r Revenue) Validate() error {
	if err := checkFinite("with_percent", r.WithPercent); err != nil {
		return err
	}
	return checkFinite("without_percent", r.WithoutPercent)
}

func (s Salary) Validate() error {
	if err := checkFinite("first", s.First); err != nil {
		return err
	}
	if err := checkFinite("second", s.Second); err != nil {
		return err
	}
	if int(s.FirstDays)+int(s.SecondDays) > 31 {
		return fmt.Errorf("%w: %d+%d", ErrInvalidPeriod, s.FirstDays, s.SecondDays)
	}
	return nil
}

func validateRevenue(records []Revenue) error {
	for _, rev := range records {
		if err := rev.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (Login) Validate() error          { return nil }
func (GetUserInfo) Validate() error    { return nil }
func (ChangePassword) Validate() error { return nil }
func (GetUserNames) Validate() error   { return nil }
func (GetUsers) Validate() error       { return nil }
func (ResetPassword) Validate() error  { return nil }

func (r GetSchedule) Validate() error          { return checkMonth(r.Month) }
func (r GetRevenue) Validate() error           { return checkMonth(r.Month) }
func (r GetSalaryCalculation) Validate() error { return checkMonth(r.Month) }

func (r SetWorkday) Validate() error {
	if err := checkMonth(r.Month); err != nil {
		return err
	}
	if !calendar.ValidDay(r.Year, r.Month, r.Day) {
		return fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDay, r.Year, r.Month, r.Day)
	}
	return nil
}

func (r AddUser) Validate() error    { return r.User.Validate() }
func (r UpdateUser) Validate() error { return r.User.Validate() }

// Validate requires exactly one record per day of the month.
func (r SetRevenue) Validate() error {
	if err := checkMonthSequence(r.Year, r.Month, len(r.Revenue), false); err != nil {
		return err
	}
	return validateRevenue(r.Revenue)
}

func (LoginResponse) Validate() error     { return nil }
func (PasswordChanged) Validate() error   { return nil }
func (PasswordReset) Validate() error     { return nil }
func (Acknowledged) Validate() error      { return nil }
func (UserNamesResponse) Validate() error { return nil }

func (r UserInfoResponse) Validate() error { return r.User.Validate() }

func (r ScheduleResponse) Validate() error {
	if err := checkMonth(r.Month); err != nil {
		return err
	}
	days := calendar.DaysIn(r.Year, r.Month)
	for id, seq := range r.Schedule {
		if len(seq) != days {
			return fmt.Errorf("%w: user=%d got=%d want=%d", ErrScheduleLength, id, len(seq), days)
		}
	}
	return nil
}

func (r UsersResponse) Validate() error {
	for _, u := range r.Users {
		if err := u.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r RevenueResponse) Validate() error {
	if err := checkMonthSequence(r.Year, r.Month, len(r.Revenue), true); err != nil {
		return err
	}
	return validateRevenue(r.Revenue)
}

func (r SalaryCalculationResponse) Validate() error {
	for _, s := range r.Salaries {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r Response) Validate() error {
	switch {
	case r.Err != nil && r.Data != nil:
		return errors.New("v2: response has both data and error")
	case r.Err != nil:
		if !r.Err.Code.Valid() {
			return fmt.Errorf("v2: invalid error code %#04x", uint32(r.Err.Code))
		}
		return nil
	case r.Data != nil:
		return r.Data.Validate()
	default:
		return ErrMissingResponse
	}
}
