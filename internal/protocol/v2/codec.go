package v2

import (
	"fmt"
	"maps"
	"slices"

	"github.com/danmuck/shiftctl/internal/protocol"
	"github.com/danmuck/shiftctl/internal/protocol/schema"
	"github.com/danmuck/shiftctl/internal/protocol/tlv"
)

// EncodeRequest validates req and returns its tag and payload fields.
func EncodeRequest(req Request) (uint32, []tlv.Field, error) {
	if req == nil {
		return 0, nil, protocol.Malformed(SchemaName, 0, "nil request", nil)
	}
	mt := req.MessageType()
	if err := req.Validate(); err != nil {
		return 0, nil, protocol.Malformed(SchemaName, mt, "invalid request", err)
	}
	fields, err := requestFields(req)
	if err != nil {
		return 0, nil, protocol.Malformed(SchemaName, mt, "encode request", err)
	}
	if err := tlv.CheckStrings(fields); err != nil {
		return 0, nil, protocol.Malformed(SchemaName, mt, "encode request", err)
	}
	return mt, fields, nil
}

// DecodeRequest rebuilds a request. Tags and shapes outside v2 are reported
// as protocol.ErrMalformed. Empty lists and maps decode as nil.
func DecodeRequest(mt uint32, fields []tlv.Field) (Request, error) {
	if !isRequestTag(mt) {
		return nil, protocol.Malformed(SchemaName, mt, "not a request tag", nil)
	}
	if err := Schema.Validate(mt, fields); err != nil {
		return nil, protocol.Malformed(SchemaName, mt, "shape", err)
	}
	req, err := decodeRequest(mt, fields)
	if err != nil {
		return nil, protocol.Malformed(SchemaName, mt, "decode request", err)
	}
	if err := req.Validate(); err != nil {
		return nil, protocol.Malformed(SchemaName, mt, "invalid request", err)
	}
	return req, nil
}

func EncodeResponse(resp Response) (uint32, []tlv.Field, error) {
	mt := resp.MessageType()
	if err := resp.Validate(); err != nil {
		return 0, nil, protocol.Malformed(SchemaName, mt, "invalid response", err)
	}
	if resp.Err != nil {
		return mt, nil, nil
	}
	fields, err := dataFields(resp.Data)
	if err != nil {
		return 0, nil, protocol.Malformed(SchemaName, mt, "encode response", err)
	}
	if err := tlv.CheckStrings(fields); err != nil {
		return 0, nil, protocol.Malformed(SchemaName, mt, "encode response", err)
	}
	return mt, fields, nil
}

func DecodeResponse(mt uint32, isError bool, fields []tlv.Field) (Response, error) {
	if isError != isErrorTag(mt) || (!isError && !isDataTag(mt)) {
		return Response{}, protocol.Malformed(SchemaName, mt, "not a response tag", nil)
	}
	if err := Schema.Validate(mt, fields); err != nil {
		return Response{}, protocol.Malformed(SchemaName, mt, "shape", err)
	}
	if isError {
		return Failure(&ProtocolError{Code: ErrorCode(mt)}), nil
	}
	data, err := decodeData(mt, fields)
	if err != nil {
		return Response{}, protocol.Malformed(SchemaName, mt, "decode response", err)
	}
	if err := data.Validate(); err != nil {
		return Response{}, protocol.Malformed(SchemaName, mt, "invalid response", err)
	}
	return Success(data), nil
}

func yearMonth(year uint16, month uint8, rest ...tlv.Field) []tlv.Field {
	return append([]tlv.Field{tlv.U16(FieldYear, year), tlv.U8(FieldMonth, month)}, rest...)
}

func requestFields(req Request) ([]tlv.Field, error) {
	switch r := req.(type) {
	case Login:
		return []tlv.Field{tlv.String(FieldLogin, r.Login), tlv.String(FieldPassword, r.Password)}, nil
	case GetUserInfo, GetUsers:
		return nil, nil
	case GetSchedule:
		return yearMonth(r.Year, r.Month), nil
	case SetWorkday:
		return yearMonth(r.Year, r.Month, tlv.U8(FieldDay, r.Day), tlv.Bool(FieldIsWorking, r.IsWorking)), nil
	case ChangePassword:
		return []tlv.Field{
			tlv.String(FieldOldPassword, r.OldPassword),
			tlv.String(FieldNewPassword, r.NewPassword),
		}, nil
	case GetUserNames:
		ids := make([]tlv.Field, len(r.IDs))
		for i, id := range r.IDs {
			ids[i] = tlv.U64(tlv.ElementID, uint64(id))
		}
		return []tlv.Field{tlv.List(FieldIDs, ids)}, nil
	case AddUser:
		return []tlv.Field{encodeUser(FieldUser, r.User)}, nil
	case ResetPassword:
		return []tlv.Field{tlv.U64(FieldID, uint64(r.ID))}, nil
	case UpdateUser:
		return []tlv.Field{encodeUser(FieldUser, r.User)}, nil
	case GetRevenue:
		return yearMonth(r.Year, r.Month), nil
	case SetRevenue:
		return yearMonth(r.Year, r.Month, encodeRevenue(r.Revenue)), nil
	case GetSalaryCalculation:
		return yearMonth(r.Year, r.Month), nil
	default:
		return nil, fmt.Errorf("unsupported request %T", req)
	}
}

func decodeRequest(mt uint32, fields []tlv.Field) (Request, error) {
	r := tlv.NewRecord(fields)
	var req Request
	switch mt {
	case MsgLogin:
		req = Login{Login: r.String(FieldLogin), Password: r.String(FieldPassword)}
	case MsgGetUserInfo:
		req = GetUserInfo{}
	case MsgGetSchedule:
		req = GetSchedule{Year: r.U16(FieldYear), Month: r.U8(FieldMonth)}
	case MsgSetWorkday:
		req = SetWorkday{
			Year:      r.U16(FieldYear),
			Month:     r.U8(FieldMonth),
			Day:       r.U8(FieldDay),
			IsWorking: r.Bool(FieldIsWorking),
		}
	case MsgChangePassword:
		req = ChangePassword{OldPassword: r.String(FieldOldPassword), NewPassword: r.String(FieldNewPassword)}
	case MsgGetUserNames:
		elems := r.List(FieldIDs)
		var ids []UserID
		for _, e := range elems {
			v, err := e.AsU64()
			if err != nil {
				r.Fail(err)
				break
			}
			ids = append(ids, UserID(v))
		}
		req = GetUserNames{IDs: ids}
	case MsgGetUsers:
		req = GetUsers{}
	case MsgAddUser:
		u, err := decodeUser(mt, r.Struct(FieldUser))
		r.Fail(err)
		req = AddUser{User: u}
	case MsgResetPassword:
		req = ResetPassword{ID: UserID(r.U64(FieldID))}
	case MsgUpdateUser:
		u, err := decodeUser(mt, r.Struct(FieldUser))
		r.Fail(err)
		req = UpdateUser{User: u}
	case MsgGetRevenue:
		req = GetRevenue{Year: r.U16(FieldYear), Month: r.U8(FieldMonth)}
	case MsgSetRevenue:
		year, month := r.U16(FieldYear), r.U8(FieldMonth)
		records, err := decodeRevenue(mt, r.List(FieldRevenue))
		r.Fail(err)
		req = SetRevenue{Year: year, Month: month, Revenue: records}
	case MsgGetSalaryCalculation:
		req = GetSalaryCalculation{Year: r.U16(FieldYear), Month: r.U8(FieldMonth)}
	default:
		return nil, fmt.Errorf("unhandled request tag %#04x", mt)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return req, nil
}

func dataFields(data ResponseData) ([]tlv.Field, error) {
	switch d := data.(type) {
	case LoginResponse:
		return []tlv.Field{tlv.String(FieldToken, d.Token)}, nil
	case UserInfoResponse:
		return []tlv.Field{encodeUser(FieldUser, d.User)}, nil
	case ScheduleResponse:
		entries := make([]tlv.Field, 0, len(d.Schedule))
		for _, id := range slices.Sorted(maps.Keys(d.Schedule)) {
			days := make([]tlv.Field, len(d.Schedule[id]))
			for i, working := range d.Schedule[id] {
				days[i] = tlv.Bool(tlv.ElementID, working)
			}
			entries = append(entries, tlv.Struct(tlv.ElementID, []tlv.Field{
				tlv.U64(entryID, uint64(id)),
				tlv.List(entryValue, days),
			}))
		}
		return yearMonth(d.Year, d.Month, tlv.List(FieldSchedule, entries)), nil
	case UserNamesResponse:
		entries := make([]tlv.Field, 0, len(d.Names))
		for _, id := range slices.Sorted(maps.Keys(d.Names)) {
			entries = append(entries, tlv.Struct(tlv.ElementID, []tlv.Field{
				tlv.U64(entryID, uint64(id)),
				tlv.String(entryValue, d.Names[id]),
			}))
		}
		return []tlv.Field{tlv.List(FieldNames, entries)}, nil
	case UsersResponse:
		users := make([]tlv.Field, len(d.Users))
		for i, u := range d.Users {
			users[i] = encodeUser(tlv.ElementID, u)
		}
		return []tlv.Field{tlv.List(FieldUsers, users)}, nil
	case RevenueResponse:
		return yearMonth(d.Year, d.Month, encodeRevenue(d.Revenue)), nil
	case SalaryCalculationResponse:
		salaries := make([]tlv.Field, len(d.Salaries))
		for i, s := range d.Salaries {
			salaries[i] = tlv.Struct(tlv.ElementID, []tlv.Field{
				tlv.U64(salaryID, uint64(s.ID)),
				tlv.F64(salaryFirst, s.First),
				tlv.U8(salaryFirstDays, s.FirstDays),
				tlv.F64(salarySecond, s.Second),
				tlv.U8(salarySecondDays, s.SecondDays),
			})
		}
		return []tlv.Field{tlv.List(FieldSalaries, salaries)}, nil
	case PasswordChanged, PasswordReset, Acknowledged:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported response %T", data)
	}
}

func decodeData(mt uint32, fields []tlv.Field) (ResponseData, error) {
	r := tlv.NewRecord(fields)
	var data ResponseData
	switch mt {
	case MsgLoginResponse:
		data = LoginResponse{Token: r.String(FieldToken)}
	case MsgUserInfoResponse:
		u, err := decodeUser(mt, r.Struct(FieldUser))
		r.Fail(err)
		data = UserInfoResponse{User: u}
	case MsgScheduleResponse:
		year, month := r.U16(FieldYear), r.U8(FieldMonth)
		sched, err := decodeSchedule(mt, r.List(FieldSchedule))
		r.Fail(err)
		data = ScheduleResponse{Year: year, Month: month, Schedule: sched}
	case MsgUserNamesResponse:
		names, err := decodeNames(mt, r.List(FieldNames))
		r.Fail(err)
		data = UserNamesResponse{Names: names}
	case MsgUsersResponse:
		elems := r.List(FieldUsers)
		var users []User
		for _, e := range elems {
			members, err := e.AsStruct()
			if err != nil {
				r.Fail(err)
				break
			}
			u, err := decodeUser(mt, members)
			r.Fail(err)
			users = append(users, u)
		}
		data = UsersResponse{Users: users}
	case MsgRevenueResponse:
		year, month := r.U16(FieldYear), r.U8(FieldMonth)
		records, err := decodeRevenue(mt, r.List(FieldRevenue))
		r.Fail(err)
		data = RevenueResponse{Year: year, Month: month, Revenue: records}
	case MsgSalaryCalculationResponse:
		elems := r.List(FieldSalaries)
		var salaries []Salary
		for _, e := range elems {
			s, err := decodeSalary(mt, e)
			r.Fail(err)
			salaries = append(salaries, s)
		}
		data = SalaryCalculationResponse{Salaries: salaries}
	case MsgPasswordChanged:
		data = PasswordChanged{}
	case MsgPasswordReset:
		data = PasswordReset{}
	case MsgAcknowledged:
		data = Acknowledged{}
	default:
		return nil, fmt.Errorf("unhandled response tag %#04x", mt)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

func encodeUser(id uint16, u User) tlv.Field {
	return tlv.Struct(id, []tlv.Field{
		tlv.U64(userID, uint64(u.ID)),
		tlv.String(userLogin, u.Login),
		tlv.String(userName, u.Name),
		tlv.Bool(userIsAdmin, u.IsAdmin),
		tlv.Bool(userIsWorker, u.IsWorker),
		tlv.F64(userPay, u.Pay),
		tlv.F64(userPercent, u.Percent),
	})
}

func decodeUser(mt uint32, members []tlv.Field) (User, error) {
	if err := Schema.Check(mt, userShape, members); err != nil {
		return User{}, err
	}
	r := tlv.NewRecord(members)
	u := User{
		ID:       UserID(r.U64(userID)),
		Login:    r.String(userLogin),
		Name:     r.String(userName),
		IsAdmin:  r.Bool(userIsAdmin),
		IsWorker: r.Bool(userIsWorker),
		Pay:      r.F64(userPay),
		Percent:  r.F64(userPercent),
	}
	return u, r.Err()
}

// encodeRevenue writes the month sequence in day order.
func encodeRevenue(records []Revenue) tlv.Field {
	elems := make([]tlv.Field, len(records))
	for i, rev := range records {
		elems[i] = tlv.Struct(tlv.ElementID, []tlv.Field{
			tlv.F64(revenueWithPercent, rev.WithPercent),
			tlv.F64(revenueWithoutPercent, rev.WithoutPercent),
		})
	}
	return tlv.List(FieldRevenue, elems)
}

func decodeRevenue(mt uint32, elems []tlv.Field) ([]Revenue, error) {
	var out []Revenue
	for _, e := range elems {
		members, err := structOf(mt, e, revenueShape)
		if err != nil {
			return nil, err
		}
		r := tlv.NewRecord(members)
		rev := Revenue{WithPercent: r.F64(revenueWithPercent), WithoutPercent: r.F64(revenueWithoutPercent)}
		if err := r.Err(); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, nil
}

func decodeSalary(mt uint32, elem tlv.Field) (Salary, error) {
	members, err := structOf(mt, elem, salaryShape)
	if err != nil {
		return Salary{}, err
	}
	r := tlv.NewRecord(members)
	s := Salary{
		ID:         UserID(r.U64(salaryID)),
		First:      r.F64(salaryFirst),
		FirstDays:  r.U8(salaryFirstDays),
		Second:     r.F64(salarySecond),
		SecondDays: r.U8(salarySecondDays),
	}
	return s, r.Err()
}

func decodeSchedule(mt uint32, elems []tlv.Field) (map[UserID][]bool, error) {
	if len(elems) == 0 {
		return nil, nil
	}
	out := make(map[UserID][]bool, len(elems))
	for _, e := range elems {
		members, err := structOf(mt, e, scheduleEntryShape)
		if err != nil {
			return nil, err
		}
		r := tlv.NewRecord(members)
		id := UserID(r.U64(entryID))
		dayFields := r.List(entryValue)
		if err := r.Err(); err != nil {
			return nil, err
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("duplicate schedule entry for user %d", id)
		}
		var days []bool
		for _, d := range dayFields {
			v, err := d.AsBool()
			if err != nil {
				return nil, err
			}
			days = append(days, v)
		}
		out[id] = days
	}
	return out, nil
}

func decodeNames(mt uint32, elems []tlv.Field) (map[UserID]string, error) {
	if len(elems) == 0 {
		return nil, nil
	}
	out := make(map[UserID]string, len(elems))
	for _, e := range elems {
		members, err := structOf(mt, e, nameEntryShape)
		if err != nil {
			return nil, err
		}
		r := tlv.NewRecord(members)
		id := UserID(r.U64(entryID))
		name := r.String(entryValue)
		if err := r.Err(); err != nil {
			return nil, err
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("duplicate name entry for user %d", id)
		}
		out[id] = name
	}
	return out, nil
}

func structOf(mt uint32, elem tlv.Field, shape []schema.Requirement) ([]tlv.Field, error) {
	members, err := elem.AsStruct()
	if err != nil {
		return nil, err
	}
	if err := Schema.Check(mt, shape, members); err != nil {
		return nil, err
	}
	return members, nil
}
