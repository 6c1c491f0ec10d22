package v2

// ResponseData is the closed union of success payloads.
type ResponseData interface {
	MessageType() uint32
	Validate() error
	isResponseData()
}

type LoginResponse struct {
	Token string
}

type UserInfoResponse struct {
	User User
}

type ScheduleResponse struct {
	Year     uint16
	Month    uint8
	Schedule map[UserID][]bool
}

type PasswordChanged struct{}

type UserNamesResponse struct {
	Names map[UserID]string
}

type UsersResponse struct {
	Users []User
}

type PasswordReset struct{}

// RevenueResponse is empty when the month has no records, otherwise it holds
// one record per day.
type RevenueResponse struct {
	Year    uint16
	Month   uint8
	Revenue []Revenue
}

type SalaryCalculationResponse struct {
	Salaries []Salary
}

type Acknowledged struct{}

func (LoginResponse) MessageType() uint32             { return MsgLoginResponse }
func (UserInfoResponse) MessageType() uint32          { return MsgUserInfoResponse }
func (ScheduleResponse) MessageType() uint32          { return MsgScheduleResponse }
func (PasswordChanged) MessageType() uint32           { return MsgPasswordChanged }
func (UserNamesResponse) MessageType() uint32         { return MsgUserNamesResponse }
func (UsersResponse) MessageType() uint32             { return MsgUsersResponse }
func (PasswordReset) MessageType() uint32             { return MsgPasswordReset }
func (RevenueResponse) MessageType() uint32           { return MsgRevenueResponse }
func (SalaryCalculationResponse) MessageType() uint32 { return MsgSalaryCalculationResponse }
func (Acknowledged) MessageType() uint32              { return MsgAcknowledged }

func (LoginResponse) isResponseData()             {}
func (UserInfoResponse) isResponseData()          {}
func (ScheduleResponse) isResponseData()          {}
func (PasswordChanged) isResponseData()           {}
func (UserNamesResponse) isResponseData()         {}
func (UsersResponse) isResponseData()             {}
func (PasswordReset) isResponseData()             {}
func (RevenueResponse) isResponseData()           {}
func (SalaryCalculationResponse) isResponseData() {}
func (Acknowledged) isResponseData()              {}

// Response carries exactly one of Data and Err.
type Response struct {
	Data ResponseData
	Err  *ProtocolError
}

func Success(data ResponseData) Response { return Response{Data: data} }

func Failure(err *ProtocolError) Response { return Response{Err: err} }

func (r Response) MessageType() uint32 {
	switch {
	case r.Err != nil:
		return r.Err.MessageType()
	case r.Data != nil:
		return r.Data.MessageType()
	default:
		return 0
	}
}

func (r Response) Result() (ResponseData, error) {
	switch {
	case r.Err != nil:
		return nil, r.Err
	case r.Data != nil:
		return r.Data, nil
	default:
		return nil, ErrMissingResponse
	}
}
