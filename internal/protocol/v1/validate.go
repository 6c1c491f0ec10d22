package v1

import (
	"errors"
	"fmt"
	"math"

	"github.com/danmuck/shiftctl/internal/calendar"
)

var (
	ErrInvalidMonth    = errors.New("v1: month out of range")
	ErrInvalidDay      = errors.New("v1: day out of range")
	ErrInvalidAmount   = errors.New("v1: amount must be finite")
	ErrNegativeAmount  = errors.New("v1: amount must not be negative")
	ErrScheduleLength  = errors.New("v1: schedule length does not match month")
	ErrDuplicateDay    = errors.New("v1: duplicate revenue day")
	ErrMissingVariant  = errors.New("v1: scope wrapper holds no request")
	ErrMissingResponse = errors.New("v1: response has neither data nor error")
)

func checkMonth(month uint8) error {
	if !calendar.ValidMonth(month) {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return nil
}

func checkDay(year uint16, month, day uint8) error {
	if err := checkMonth(month); err != nil {
		return err
	}
	if !calendar.ValidDay(year, month, day) {
		return fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDay, year, month, day)
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

func (u User) Validate() error {
	if err := checkNonNegative("pay", u.Pay); err != nil {
		return err
	}
	return checkNonNegative("percent", u.Percent)
}

// validateIn checks the day against (year, month) and the amounts.
func (r Revenue) validateIn(year uint16, month uint8) error {
	if err := checkDay(year, month, r.Day); err != nil {
		return err
	}
	if err := checkFinite("with_percent", r.WithPercent); err != nil {
		return err
	}
	return checkFinite("without_percent", r.WithoutPercent)
}

func (s Salary) Validate() error {
	if err := checkFinite("total", s.Total); err != nil {
		return err
	}
	return checkFinite("paid", s.Paid)
}

func (s UserScope) Validate() error {
	if s.Request == nil {
		return ErrMissingVariant
	}
	return s.Request.Validate()
}

func (s AdminScope) Validate() error {
	if s.Request == nil {
		return ErrMissingVariant
	}
	return s.Request.Validate()
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

func (r SetWorkday) Validate() error { return checkDay(r.Year, r.Month, r.Day) }

func (r AddUser) Validate() error    { return r.User.Validate() }
func (r UpdateUser) Validate() error { return r.User.Validate() }

func (r SetRevenue) Validate() error { return r.Revenue.validateIn(r.Year, r.Month) }

func (LoginResponse) Validate() error   { return nil }
func (PasswordChanged) Validate() error { return nil }
func (PasswordReset) Validate() error   { return nil }
func (Acknowledged) Validate() error    { return nil }

func (UserNamesResponse) Validate() error { return nil }

func (r UserInfoResponse) Validate() error { return r.User.Validate() }

// Validate requires every sequence to hold exactly one entry per day of the month.
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
	if err := checkMonth(r.Month); err != nil {
		return err
	}
	seen := make(map[uint8]struct{}, len(r.Revenue))
	for _, rev := range r.Revenue {
		if err := rev.validateIn(r.Year, r.Month); err != nil {
			return err
		}
		if _, dup := seen[rev.Day]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateDay, rev.Day)
		}
		seen[rev.Day] = struct{}{}
	}
	return nil
}

func (r SalaryCalculationResponse) Validate() error {
	for _, s := range r.Salaries {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that exactly one side of the result is set and well formed.
func (r Response) Validate() error {
	switch {
	case r.Err != nil && r.Data != nil:
		return errors.New("v1: response has both data and error")
	case r.Err != nil:
		if !r.Err.Code.Valid() {
			return fmt.Errorf("v1: invalid error code %#04x", uint32(r.Err.Code))
		}
		return nil
	case r.Data != nil:
		return r.Data.Validate()
	default:
		return ErrMissingResponse
	}
}
