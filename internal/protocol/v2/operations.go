package v2

import "github.com/danmuck/shiftctl/internal/protocol"

// Operation binds a request tag to its designated success tag. The flat
// union no longer encodes the tier, so it is only recorded here.
type Operation struct {
	Name     string
	Request  uint32
	Response uint32
	Tier     protocol.Tier
	Public   bool
}

var operations = []Operation{
	{"Login", MsgLogin, MsgLoginResponse, protocol.TierUser, true},
	{"GetUserInfo", MsgGetUserInfo, MsgUserInfoResponse, protocol.TierUser, false},
	{"GetSchedule", MsgGetSchedule, MsgScheduleResponse, protocol.TierUser, false},
	{"SetWorkday", MsgSetWorkday, MsgAcknowledged, protocol.TierUser, false},
	{"ChangePassword", MsgChangePassword, MsgPasswordChanged, protocol.TierUser, false},
	{"GetUserNames", MsgGetUserNames, MsgUserNamesResponse, protocol.TierUser, false},
	{"GetUsers", MsgGetUsers, MsgUsersResponse, protocol.TierAdmin, false},
	{"AddUser", MsgAddUser, MsgAcknowledged, protocol.TierAdmin, false},
	{"ResetPassword", MsgResetPassword, MsgPasswordReset, protocol.TierAdmin, false},
	{"UpdateUser", MsgUpdateUser, MsgAcknowledged, protocol.TierAdmin, false},
	{"GetRevenue", MsgGetRevenue, MsgRevenueResponse, protocol.TierAdmin, false},
	{"SetRevenue", MsgSetRevenue, MsgAcknowledged, protocol.TierAdmin, false},
	{"GetSalaryCalculation", MsgGetSalaryCalculation, MsgSalaryCalculationResponse, protocol.TierAdmin, false},
}

var operationsByRequest = func() map[uint32]Operation {
	out := make(map[uint32]Operation, len(operations))
	for _, op := range operations {
		out[op.Request] = op
	}
	return out
}()

func Operations() []Operation {
	return append([]Operation(nil), operations...)
}

func OperationFor(requestType uint32) (Operation, bool) {
	op, ok := operationsByRequest[requestType]
	return op, ok
}

// RequestTypes lists every v2 request tag, for routing.
func RequestTypes() []uint32 {
	out := make([]uint32, len(operations))
	for i, op := range operations {
		out[i] = op.Request
	}
	return out
}

func OperationNames(tier protocol.Tier) []string {
	var out []string
	for _, op := range operations {
		if op.Tier == tier {
			out = append(out, op.Name)
		}
	}
	return out
}
