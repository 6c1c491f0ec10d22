package v1

import "math"

// UserID identifies a user within the v1 schema.
type UserID int32

const (
	MinUserID UserID = math.MinInt32
	MaxUserID UserID = math.MaxInt32
)

// User is the stored user record. IsAdmin and IsWorker are independent flags.
type User struct {
	ID       UserID
	Login    string
	Name     string
	IsAdmin  bool
	IsWorker bool
	Pay      float64
	Percent  float64
}

// Revenue is one day's receipts split by percent eligibility.
type Revenue struct {
	Day            uint8
	WithPercent    float64
	WithoutPercent float64
}

// Salary is a computed payroll line for one user over a month.
type Salary struct {
	ID    UserID
	Total float64
	Paid  float64
}
