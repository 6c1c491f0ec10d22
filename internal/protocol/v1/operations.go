package v1

import "github.com/danmuck/shiftctl/internal/protocol"

// Operation binds a request variant to its designated success variant.
type Operation struct {
	Name     string
	Request  uint32
	Response uint32
	Tier     protocol.Tier
	// Public operations are valid without a session token.
	Public bool
}

var operations = []Operation{
	{Name: "Login", Request: MsgLogin, Response: MsgLoginResponse, Tier: protocol.TierUser, Public: true},
	{Name: "GetUserInfo", Request: MsgGetUserInfo, Response: MsgUserInfoResponse, Tier: protocol.TierUser},
	{Name: "GetSchedule", Request: MsgGetSchedule, Response: MsgScheduleResponse, Tier: protocol.TierUser},
	{Name: "SetWorkday", Request: MsgSetWorkday, Response: MsgAcknowledged, Tier: protocol.TierUser},
	{Name: "ChangePassword", Request: MsgChangePassword, Response: MsgPasswordChanged, Tier: protocol.TierUser},
	{Name: "GetUserNames", Request: MsgGetUserNames, Response: MsgUserNamesResponse, Tier: protocol.TierUser},

	{Name: "GetUsers", Request: MsgGetUsers, Response: MsgUsersResponse, Tier: protocol.TierAdmin},
	{Name: "AddUser", Request: MsgAddUser, Response: MsgAcknowledged, Tier: protocol.TierAdmin},
	{Name: "ResetPassword", Request: MsgResetPassword, Response: MsgPasswordReset, Tier: protocol.TierAdmin},
	{Name: "UpdateUser", Request: MsgUpdateUser, Response: MsgAcknowledged, Tier: protocol.TierAdmin},
	{Name: "GetRevenue", Request: MsgGetRevenue, Response: MsgRevenueResponse, Tier: protocol.TierAdmin},
	{Name: "SetRevenue", Request: MsgSetRevenue, Response: MsgAcknowledged, Tier: protocol.TierAdmin},
	{Name: "GetSalaryCalculation", Request: MsgGetSalaryCalculation, Response: MsgSalaryCalculationResponse, Tier: protocol.TierAdmin},
}

var operationsByRequest = func() map[uint32]Operation {
	out := make(map[uint32]Operation, len(operations))
	for _, op := range operations {
		out[op.Request] = op
	}
	return out
}()

// Operations returns every v1 operation in declaration order.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// OperationFor returns the operation whose request tag is requestType.
func OperationFor(requestType uint32) (Operation, bool) {
	op, ok := operationsByRequest[requestType]
	return op, ok
}

// RequestTypes lists every v1 request tag, for routing.
func RequestTypes() []uint32 {
	out := make([]uint32, 0, len(operations))
	for _, op := range operations {
		out = append(out, op.Request)
	}
	return out
}

// OperationNames returns the names of every operation in tier.
func OperationNames(tier protocol.Tier) []string {
	var out []string
	for _, op := range operations {
		if op.Tier == tier {
			out = append(out, op.Name)
		}
	}
	return out
}
