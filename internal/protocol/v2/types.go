package v2

import "math"

// UserID identifies a user within the v2 schema.
type UserID uint64

const MaxUserID UserID = math.MaxUint64

type User struct {
	ID       UserID
	Login    string
	Name     string
	IsAdmin  bool
	IsWorker bool
	Pay      float64
	Percent  float64
}

// Revenue is one day's receipts. The day is the record's position in its
// month sequence, starting at 1.
type Revenue struct {
	WithPercent    float64
	WithoutPercent float64
}

// Salary splits a month's pay into the first and second half-month periods.
type Salary struct {
	ID         UserID
	First      float64
	FirstDays  uint8
	Second     float64
	SecondDays uint8
}
