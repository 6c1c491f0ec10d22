package v1

import (
	"github.com/danmuck/shiftctl/internal/protocol/schema"
	"github.com/danmuck/shiftctl/internal/protocol/tlv"
)

// SchemaName labels v1 in logs, metrics and errors.
const SchemaName = "v1"

// Request tags. The high byte is the scope wrapper, the low byte the operation.
const (
	ScopeUser  uint32 = 0x01
	ScopeAdmin uint32 = 0x02

	MsgLogin          uint32 = ScopeUser<<8 | 0x01
	MsgGetUserInfo    uint32 = ScopeUser<<8 | 0x02
	MsgGetSchedule    uint32 = ScopeUser<<8 | 0x03
	MsgSetWorkday     uint32 = ScopeUser<<8 | 0x04
	MsgChangePassword uint32 = ScopeUser<<8 | 0x05
	MsgGetUserNames   uint32 = ScopeUser<<8 | 0x06

	MsgGetUsers             uint32 = ScopeAdmin<<8 | 0x01
	MsgAddUser              uint32 = ScopeAdmin<<8 | 0x02
	MsgResetPassword        uint32 = ScopeAdmin<<8 | 0x03
	MsgUpdateUser           uint32 = ScopeAdmin<<8 | 0x04
	MsgGetRevenue           uint32 = ScopeAdmin<<8 | 0x05
	MsgSetRevenue           uint32 = ScopeAdmin<<8 | 0x06
	MsgGetSalaryCalculation uint32 = ScopeAdmin<<8 | 0x07
)

// Success response tags.
const (
	MsgLoginResponse             uint32 = 0x8101
	MsgUserInfoResponse          uint32 = 0x8102
	MsgScheduleResponse          uint32 = 0x8103
	MsgUserNamesResponse         uint32 = 0x8106
	MsgUsersResponse             uint32 = 0x8201
	MsgRevenueResponse           uint32 = 0x8205
	MsgSalaryCalculationResponse uint32 = 0x8207

	// Empty shapes shared with v2 under the same tags.
	MsgPasswordChanged uint32 = 0xA001
	MsgPasswordReset   uint32 = 0xA002
	MsgAcknowledged    uint32 = 0xA003
)

// Error tags.
const (
	MsgLoginFailed  uint32 = 0xE001
	MsgForbidden    uint32 = 0xE002
	MsgUnknownToken uint32 = 0xE003
	MsgUserExist    uint32 = 0xE104
	MsgUnknown      uint32 = 0xE105
)

// Message field ids.
const (
	FieldLogin       uint16 = 1
	FieldPassword    uint16 = 2
	FieldOldPassword uint16 = 3
	FieldNewPassword uint16 = 4
	FieldToken       uint16 = 5

	FieldYear      uint16 = 10
	FieldMonth     uint16 = 11
	FieldDay       uint16 = 12
	FieldIsWorking uint16 = 13

	FieldID  uint16 = 20
	FieldIDs uint16 = 21

	FieldUser  uint16 = 30
	FieldUsers uint16 = 31

	FieldRevenue  uint16 = 40
	FieldSchedule uint16 = 50
	FieldNames    uint16 = 51
	FieldSalaries uint16 = 60

	FieldDetail uint16 = 70
)

// Struct member ids.
const (
	userID       uint16 = 1
	userLogin    uint16 = 2
	userName     uint16 = 3
	userIsAdmin  uint16 = 4
	userIsWorker uint16 = 5
	userPay      uint16 = 6
	userPercent  uint16 = 7

	revenueDay            uint16 = 1
	revenueWithPercent    uint16 = 2
	revenueWithoutPercent uint16 = 3

	salaryID    uint16 = 1
	salaryTotal uint16 = 2
	salaryPaid  uint16 = 3

	entryID    uint16 = 1
	entryValue uint16 = 2
)

var (
	userShape = []schema.Requirement{
		{ID: userID, Type: tlv.TypeI32},
		{ID: userLogin, Type: tlv.TypeString},
		{ID: userName, Type: tlv.TypeString},
		{ID: userIsAdmin, Type: tlv.TypeBool},
		{ID: userIsWorker, Type: tlv.TypeBool},
		{ID: userPay, Type: tlv.TypeF64},
		{ID: userPercent, Type: tlv.TypeF64},
	}
	revenueShape = []schema.Requirement{
		{ID: revenueDay, Type: tlv.TypeU8},
		{ID: revenueWithPercent, Type: tlv.TypeF64},
		{ID: revenueWithoutPercent, Type: tlv.TypeF64},
	}
	salaryShape = []schema.Requirement{
		{ID: salaryID, Type: tlv.TypeI32},
		{ID: salaryTotal, Type: tlv.TypeF64},
		{ID: salaryPaid, Type: tlv.TypeF64},
	}
	scheduleEntryShape = []schema.Requirement{
		{ID: entryID, Type: tlv.TypeI32},
		{ID: entryValue, Type: tlv.TypeList},
	}
	nameEntryShape = []schema.Requirement{
		{ID: entryID, Type: tlv.TypeI32},
		{ID: entryValue, Type: tlv.TypeString},
	}
)

var yearMonth = []schema.Requirement{
	{ID: FieldYear, Type: tlv.TypeU16},
	{ID: FieldMonth, Type: tlv.TypeU8},
}

func with(base []schema.Requirement, extra ...schema.Requirement) []schema.Requirement {
	out := make([]schema.Requirement, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// Schema is the closed v1 vocabulary.
var Schema = schema.Table{
	Name: SchemaName,
	Messages: map[uint32]schema.Message{
		MsgLogin: {Name: "Login", Fields: []schema.Requirement{
			{ID: FieldLogin, Type: tlv.TypeString},
			{ID: FieldPassword, Type: tlv.TypeString},
		}},
		MsgGetUserInfo: {Name: "GetUserInfo"},
		MsgGetSchedule: {Name: "GetSchedule", Fields: yearMonth},
		MsgSetWorkday: {Name: "SetWorkday", Fields: with(yearMonth,
			schema.Requirement{ID: FieldDay, Type: tlv.TypeU8},
			schema.Requirement{ID: FieldIsWorking, Type: tlv.TypeBool},
		)},
		MsgChangePassword: {Name: "ChangePassword", Fields: []schema.Requirement{
			{ID: FieldOldPassword, Type: tlv.TypeString},
			{ID: FieldNewPassword, Type: tlv.TypeString},
		}},
		MsgGetUserNames: {Name: "GetUserNames", Fields: []schema.Requirement{
			{ID: FieldIDs, Type: tlv.TypeList},
		}},

		MsgGetUsers:      {Name: "GetUsers"},
		MsgAddUser:       {Name: "AddUser", Fields: []schema.Requirement{{ID: FieldUser, Type: tlv.TypeStruct}}},
		MsgResetPassword: {Name: "ResetPassword", Fields: []schema.Requirement{{ID: FieldID, Type: tlv.TypeI32}}},
		MsgUpdateUser:    {Name: "UpdateUser", Fields: []schema.Requirement{{ID: FieldUser, Type: tlv.TypeStruct}}},
		MsgGetRevenue:    {Name: "GetRevenue", Fields: yearMonth},
		MsgSetRevenue: {Name: "SetRevenue", Fields: with(yearMonth,
			schema.Requirement{ID: FieldRevenue, Type: tlv.TypeStruct},
		)},
		MsgGetSalaryCalculation: {Name: "GetSalaryCalculation", Fields: yearMonth},

		MsgLoginResponse: {Name: "LoginResponse", Fields: []schema.Requirement{
			{ID: FieldToken, Type: tlv.TypeString},
			{ID: FieldID, Type: tlv.TypeI32},
		}},
		MsgUserInfoResponse: {Name: "UserInfo", Fields: []schema.Requirement{{ID: FieldUser, Type: tlv.TypeStruct}}},
		MsgScheduleResponse: {Name: "Schedule", Fields: with(yearMonth,
			schema.Requirement{ID: FieldSchedule, Type: tlv.TypeList},
		)},
		MsgPasswordChanged:   {Name: "PasswordChanged"},
		MsgUserNamesResponse: {Name: "UserNames", Fields: []schema.Requirement{{ID: FieldNames, Type: tlv.TypeList}}},
		MsgUsersResponse:     {Name: "Users", Fields: []schema.Requirement{{ID: FieldUsers, Type: tlv.TypeList}}},
		MsgPasswordReset:     {Name: "PasswordReset"},
		MsgRevenueResponse: {Name: "Revenue", Fields: with(yearMonth,
			schema.Requirement{ID: FieldRevenue, Type: tlv.TypeList},
		)},
		MsgSalaryCalculationResponse: {Name: "SalaryCalculation", Fields: []schema.Requirement{
			{ID: FieldSalaries, Type: tlv.TypeList},
		}},
		MsgAcknowledged: {Name: "Acknowledged"},

		MsgLoginFailed:  {Name: "LoginFailed"},
		MsgForbidden:    {Name: "Forbidden"},
		MsgUnknownToken: {Name: "UnknownToken"},
		MsgUserExist:    {Name: "UserExist"},
		MsgUnknown:      {Name: "Unknown", Fields: []schema.Requirement{{ID: FieldDetail, Type: tlv.TypeString}}},
	},
}

func isRequestTag(mt uint32) bool {
	_, ok := operationsByRequest[mt]
	return ok
}

func isErrorTag(mt uint32) bool {
	return ErrorCode(mt).Valid()
}

func isDataTag(mt uint32) bool {
	_, known := Schema.Messages[mt]
	return known && !isRequestTag(mt) && !isErrorTag(mt)
}
