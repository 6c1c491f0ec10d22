package v1

// Request is the closed top-level union. Its only variants are UserScope and
// AdminScope.
type Request interface {
	MessageType() uint32
	Validate() error
	isRequest()
}

// UserRequest is the closed union of user-tier operations.
type UserRequest interface {
	MessageType() uint32
	Validate() error
	isUserRequest()
}

// AdminRequest is the closed union of admin-tier operations.
type AdminRequest interface {
	MessageType() uint32
	Validate() error
	isAdminRequest()
}

// UserScope wraps a user-tier operation.
type UserScope struct {
	Request UserRequest
}

// AdminScope wraps an admin-tier operation.
type AdminScope struct {
	Request AdminRequest
}

func AsUser(r UserRequest) Request   { return UserScope{Request: r} }
func AsAdmin(r AdminRequest) Request { return AdminScope{Request: r} }

func (s UserScope) MessageType() uint32 {
	if s.Request == nil {
		return 0
	}
	return s.Request.MessageType()
}

func (s AdminScope) MessageType() uint32 {
	if s.Request == nil {
		return 0
	}
	return s.Request.MessageType()
}

func (UserScope) isRequest()  {}
func (AdminScope) isRequest() {}

// User-tier operations.

type Login struct {
	Login    string
	Password string
}

type GetUserInfo struct{}

type GetSchedule struct {
	Year  uint16
	Month uint8
}

// SetWorkday changes one day of the caller's own schedule.
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

// GetUserNames looks names up in bulk. Result order is not tied to IDs order.
type GetUserNames struct {
	IDs []UserID
}

// Admin-tier operations.

type GetUsers struct{}

// AddUser creates a user. User.ID is ignored; the server assigns it.
type AddUser struct {
	User User
}

type ResetPassword struct {
	ID UserID
}

// UpdateUser replaces the stored record whose id equals User.ID.
type UpdateUser struct {
	User User
}

type GetRevenue struct {
	Year  uint16
	Month uint8
}

// SetRevenue replaces the record of Revenue.Day within (Year, Month).
type SetRevenue struct {
	Year    uint16
	Month   uint8
	Revenue Revenue
}

type GetSalaryCalculation struct {
	Year  uint16
	Month uint8
}

func (Login) MessageType() uint32          { return MsgLogin }
func (GetUserInfo) MessageType() uint32    { return MsgGetUserInfo }
func (GetSchedule) MessageType() uint32    { return MsgGetSchedule }
func (SetWorkday) MessageType() uint32     { return MsgSetWorkday }
func (ChangePassword) MessageType() uint32 { return MsgChangePassword }
func (GetUserNames) MessageType() uint32   { return MsgGetUserNames }

func (GetUsers) MessageType() uint32             { return MsgGetUsers }
func (AddUser) MessageType() uint32              { return MsgAddUser }
func (ResetPassword) MessageType() uint32        { return MsgResetPassword }
func (UpdateUser) MessageType() uint32           { return MsgUpdateUser }
func (GetRevenue) MessageType() uint32           { return MsgGetRevenue }
func (SetRevenue) MessageType() uint32           { return MsgSetRevenue }
func (GetSalaryCalculation) MessageType() uint32 { return MsgGetSalaryCalculation }

func (Login) isUserRequest()          {}
func (GetUserInfo) isUserRequest()    {}
func (GetSchedule) isUserRequest()    {}
func (SetWorkday) isUserRequest()     {}
func (ChangePassword) isUserRequest() {}
func (GetUserNames) isUserRequest()   {}

func (GetUsers) isAdminRequest()             {}
func (AddUser) isAdminRequest()              {}
func (ResetPassword) isAdminRequest()        {}
func (UpdateUser) isAdminRequest()           {}
func (GetRevenue) isAdminRequest()           {}
func (SetRevenue) isAdminRequest()           {}
func (GetSalaryCalculation) isAdminRequest() {}
