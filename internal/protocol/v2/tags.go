package v2

import (
	"github.com/danmuck/shiftctl/internal/protocol/schema"
	"github.com/danmuck/shiftctl/internal/protocol/tlv"
)

const SchemaName = "v2"

// Request tags.
const (
	MsgLogin                uint32 = 0x1001
	MsgGetUserInfo          uint32 = 0x1002
	MsgGetSchedule          uint32 = 0x1003
	MsgSetWorkday           uint32 = 0x1004
	MsgChangePassword       uint32 = 0x1005
	MsgGetUserNames         uint32 = 0x1006
	MsgGetUsers             uint32 = 0x1007
	MsgAddUser              uint32 = 0x1008
	MsgResetPassword        uint32 = 0x1009
	MsgUpdateUser           uint32 = 0x100A
	MsgGetRevenue           uint32 = 0x100B
	MsgSetRevenue           uint32 = 0x100C
	MsgGetSalaryCalculation uint32 = 0x100D
)

// Success response tags.
const (
	MsgLoginResponse             uint32 = 0x9101
	MsgUserInfoResponse          uint32 = 0x9102
	MsgScheduleResponse          uint32 = 0x9103
	MsgUserNamesResponse         uint32 = 0x9106
	MsgUsersResponse             uint32 = 0x9201
	MsgRevenueResponse           uint32 = 0x9205
	MsgSalaryCalculationResponse uint32 = 0x9207

	// Same tags and shapes as v1.
	MsgPasswordChanged uint32 = 0xA001
	MsgPasswordReset   uint32 = 0xA002
	MsgAcknowledged    uint32 = 0xA003
)

// Error tags.
const (
	MsgLoginFailed  uint32 = 0xE001
	MsgForbidden    uint32 = 0xE002
	MsgUnknownToken uint32 = 0xE003
	MsgUnknown      uint32 = 0xE205
)

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
)

const (
	userID       uint16 = 1
	userLogin    uint16 = 2
	userName     uint16 = 3
	userIsAdmin  uint16 = 4
	userIsWorker uint16 = 5
	userPay      uint16 = 6
	userPercent  uint16 = 7

	revenueWithPercent    uint16 = 2
	revenueWithoutPercent uint16 = 3

	salaryID         uint16 = 1
	salaryFirst      uint16 = 2
	salaryFirstDays  uint16 = 3
	salarySecond     uint16 = 4
	salarySecondDays uint16 = 5

	entryID    uint16 = 1
	entryValue uint16 = 2
)

var (
	userShape = []schema.Requirement{
		{ID: userID, Type: tlv.TypeU64},
		{ID: userLogin, Type: tlv.TypeString},
		{ID: userName, Type: tlv.TypeString},
		{ID: userIsAdmin, Type: tlv.TypeBool},
		{ID: userIsWorker, Type: tlv.TypeBool},
		{ID: userPay, Type: tlv.TypeF64},
		{ID: userPercent, Type: tlv.TypeF64},
	}
	revenueShape = []schema.Requirement{
		{ID: revenueWithPercent, Type: tlv.TypeF64},
		{ID: revenueWithoutPercent, Type: tlv.TypeF64},
	}
	salaryShape = []schema.Requirement{
		{ID: salaryID, Type: tlv.TypeU64},
		{ID: salaryFirst, Type: tlv.TypeF64},
		{ID: salaryFirstDays, Type: tlv.TypeU8},
		{ID: salarySecond, Type: tlv.TypeF64},
		{ID: salarySecondDays, Type: tlv.TypeU8},
	}
	scheduleEntryShape = []schema.Requirement{
		{ID: entryID, Type: tlv.TypeU64},
		{ID: entryValue, Type: tlv.TypeList},
	}
	nameEntryShape = []schema.Requirement{
		{ID: entryID, Type: tlv.TypeU64},
		{ID: entryValue, Type: tlv.TypeString},
	}
)

func yearMonthPlus(extra ...schema.Requirement) []schema.Requirement {
	return append([]schema.Requirement{
		{ID: FieldYear, Type: tlv.TypeU16},
		{ID: FieldMonth, Type: tlv.TypeU8},
	}, extra...)
}

// Schema is the closed v2 vocabulary.
var Schema = schema.Table{
	Name: SchemaName,
	Messages: map[uint32]schema.Message{
		MsgLogin: {Name: "Login", Fields: []schema.Requirement{
			{ID: FieldLogin, Type: tlv.TypeString},
			{ID: FieldPassword, Type: tlv.TypeString},
		}},
		MsgGetUserInfo: {Name: "GetUserInfo"},
		MsgGetSchedule: {Name: "GetSchedule", Fields: yearMonthPlus()},
		MsgSetWorkday: {Name: "SetWorkday", Fields: yearMonthPlus(
			schema.Requirement{ID: FieldDay, Type: tlv.TypeU8},
			schema.Requirement{ID: FieldIsWorking, Type: tlv.TypeBool},
		)},
		MsgChangePassword: {Name: "ChangePassword", Fields: []schema.Requirement{
			{ID: FieldOldPassword, Type: tlv.TypeString},
			{ID: FieldNewPassword, Type: tlv.TypeString},
		}},
		MsgGetUserNames:         {Name: "GetUserNames", Fields: []schema.Requirement{{ID: FieldIDs, Type: tlv.TypeList}}},
		MsgGetUsers:             {Name: "GetUsers"},
		MsgAddUser:              {Name: "AddUser", Fields: []schema.Requirement{{ID: FieldUser, Type: tlv.TypeStruct}}},
		MsgResetPassword:        {Name: "ResetPassword", Fields: []schema.Requirement{{ID: FieldID, Type: tlv.TypeU64}}},
		MsgUpdateUser:           {Name: "UpdateUser", Fields: []schema.Requirement{{ID: FieldUser, Type: tlv.TypeStruct}}},
		MsgGetRevenue:           {Name: "GetRevenue", Fields: yearMonthPlus()},
		MsgSetRevenue:           {Name: "SetRevenue", Fields: yearMonthPlus(schema.Requirement{ID: FieldRevenue, Type: tlv.TypeList})},
		MsgGetSalaryCalculation: {Name: "GetSalaryCalculation", Fields: yearMonthPlus()},

		MsgLoginResponse:     {Name: "LoginResponse", Fields: []schema.Requirement{{ID: FieldToken, Type: tlv.TypeString}}},
		MsgUserInfoResponse:  {Name: "UserInfo", Fields: []schema.Requirement{{ID: FieldUser, Type: tlv.TypeStruct}}},
		MsgScheduleResponse:  {Name: "Schedule", Fields: yearMonthPlus(schema.Requirement{ID: FieldSchedule, Type: tlv.TypeList})},
		MsgPasswordChanged:   {Name: "PasswordChanged"},
		MsgUserNamesResponse: {Name: "UserNames", Fields: []schema.Requirement{{ID: FieldNames, Type: tlv.TypeList}}},
		MsgUsersResponse:     {Name: "Users", Fields: []schema.Requirement{{ID: FieldUsers, Type: tlv.TypeList}}},
		MsgPasswordReset:     {Name: "PasswordReset"},
		MsgRevenueResponse:   {Name: "Revenue", Fields: yearMonthPlus(schema.Requirement{ID: FieldRevenue, Type: tlv.TypeList})},
		MsgSalaryCalculationResponse: {Name: "SalaryCalculation", Fields: []schema.Requirement{
			{ID: FieldSalaries, Type: tlv.TypeList},
		}},
		MsgAcknowledged: {Name: "Acknowledged"},

		MsgLoginFailed:  {Name: "LoginFailed"},
		MsgForbidden:    {Name: "Forbidden"},
		MsgUnknownToken: {Name: "UnknownToken"},
		MsgUnknown:      {Name: "Unknown"},
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
