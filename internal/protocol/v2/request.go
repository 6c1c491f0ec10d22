package v2

// Request is the closed union of v2 operations.
type Request interface {
	MessageType() uint32
	Validate() error
	isRequest()
}

type Login struct {
	Login    string
	Password string
}

type GetUserInfo struct{}

type GetSchedule struct {
	Year  uint16
	Month uint8
}

type SetWorkday struct {
	Year      uint16
	Month     uint8
	Day       uint8
	IsWorking bool
}

type ChangePassword struct {
	OldPassword string
	NewPassword string
}

type GetUserNames struct {
	IDs []UserID
}

type GetUsers struct{}

// AddUser creates a user. User.ID is ignored.
type AddUser struct {
	User User
}

type ResetPassword struct {
	ID UserID
}

type UpdateUser struct {
	User User
}

type GetRevenue struct {
	Year  uint16
	Month uint8
}

// SetRevenue replaces the whole month. Revenue holds one record per day.
type SetRevenue struct {
	Year    uint16
	Month   uint8
	Revenue []Revenue
}

type GetSalaryCalculation struct {
	Year  uint16
	Month uint8
}

func (Login) MessageType() uint32                { return MsgLogin }
func (GetUserInfo) MessageType() uint32          { return MsgGetUserInfo }
func (GetSchedule) MessageType() uint32          { return MsgGetSchedule }
func (SetWorkday) MessageType() uint32           { return MsgSetWorkday }
func (ChangePassword) MessageType() uint32       { return MsgChangePassword }
func (GetUserNames) MessageType() uint32         { return MsgGetUserNames }
func (GetUsers) MessageType() uint32             { return MsgGetUsers }
func (AddUser) MessageType() uint32              { return MsgAddUser }
func (ResetPassword) MessageType() uint32        { return MsgResetPassword }
func (UpdateUser) MessageType() uint32           { return MsgUpdateUser }
func (GetRevenue) MessageType() uint32           { return MsgGetRevenue }
func (SetRevenue) MessageType() uint32           { return MsgSetRevenue }
func (GetSalaryCalculation) MessageType() uint32 { return MsgGetSalaryCalculation }

func (Login) isRequest()                {}
func (GetUserInfo) isRequest()          {}
func (GetSchedule) isRequest()          {}
func (SetWorkday) isRequest()           {}
func (ChangePassword) isRequest()       {}
func (GetUserNames) isRequest()         {}
func (GetUsers) isRequest()             {}
func (AddUser) isRequest()              {}
func (ResetPassword) isRequest()        {}
func (UpdateUser) isRequest()           {}
func (GetRevenue) isRequest()           {}
func (SetRevenue) isRequest()           {}
func (GetSalaryCalculation) isRequest() {}
