package v1

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

// DecodeRequest rebuilds a request from its tag and payload fields. Anything
// outside the v1 request vocabulary is reported as protocol.ErrMalformed.
// Empty lists and maps decode as nil.
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

// EncodeResponse validates resp and returns its tag and payload fields.
func EncodeResponse(resp Response) (uint32, []tlv.Field, error) {
	mt := resp.MessageType()
	if err := resp.Validate(); err != nil {
		return 0, nil, protocol.Malformed(SchemaName, mt, "invalid response", err)
	}
	if resp.Err != nil {
		fields := errorFields(resp.Err)
		if err := tlv.CheckStrings(fields); err != nil {
			return 0, nil, protocol.Malformed(SchemaName, mt, "encode error", err)
		}
		return mt, fields, nil
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

// DecodeResponse rebuilds a response. isError selects the error vocabulary.
func DecodeResponse(mt uint32, isError bool, fields []tlv.Field) (Response, error) {
	if isError && !isErrorTag(mt) {
		return Response{}, protocol.Malformed(SchemaName, mt, "not an error tag", nil)
	}
	if !isError && !isDataTag(mt) {
		return Response{}, protocol.Malformed(SchemaName, mt, "not a response tag", nil)
	}
	if err := Schema.Validate(mt, fields); err != nil {
		return Response{}, protocol.Malformed(SchemaName, mt, "shape", err)
	}
	var resp Response
	if isError {
		e, err := decodeError(mt, fields)
		if err != nil {
			return Response{}, protocol.Malformed(SchemaName, mt, "decode error", err)
		}
		resp = Failure(e)
	} else {
		data, err := decodeData(mt, fields)
		if err != nil {
			return Response{}, protocol.Malformed(SchemaName, mt, "decode response", err)
		}
		resp = Success(data)
	}
	if err := resp.Validate(); err != nil {
		return Response{}, protocol.Malformed(SchemaName, mt, "invalid response", err)
	}
	return resp, nil
}

func yearMonthFields(year uint16, month uint8) []tlv.Field {
	return []tlv.Field{tlv.U16(FieldYear, year), tlv.U8(FieldMonth, month)}
}

func requestFields(req Request) ([]tlv.Field, error) {
	var inner any
	switch s := req.(type) {
	case UserScope:
		inner = s.Request
	case AdminScope:
		inner = s.Request
	default:
		return nil, fmt.Errorf("unsupported request %T", req)
	}
	switch r := inner.(type) {
	case Login:
		return []tlv.Field{tlv.String(FieldLogin, r.Login), tlv.String(FieldPassword, r.Password)}, nil
	case GetUserInfo, GetUsers:
		return nil, nil
	case GetSchedule:
		return yearMonthFields(r.Year, r.Month), nil
	case SetWorkday:
		return append(yearMonthFields(r.Year, r.Month),
			tlv.U8(FieldDay, r.Day),
			tlv.Bool(FieldIsWorking, r.IsWorking),
		), nil
	case ChangePassword:
		return []tlv.Field{
			tlv.String(FieldOldPassword, r.OldPassword),
			tlv.String(FieldNewPassword, r.NewPassword),
		}, nil
	case GetUserNames:
		ids := make([]tlv.Field, len(r.IDs))
		for i, id := range r.IDs {
			ids[i] = tlv.I32(tlv.ElementID, int32(id))
		}
		return []tlv.Field{tlv.List(FieldIDs, ids)}, nil
	case AddUser:
		return []tlv.Field{encodeUser(FieldUser, r.User)}, nil
	case ResetPassword:
		return []tlv.Field{tlv.I32(FieldID, int32(r.ID))}, nil
	case UpdateUser:
		return []tlv.Field{encodeUser(FieldUser, r.User)}, nil
	case GetRevenue:
		return yearMonthFields(r.Year, r.Month), nil
	case SetRevenue:
		return append(yearMonthFields(r.Year, r.Month), encodeRevenue(FieldRevenue, r.Revenue)), nil
	case GetSalaryCalculation:
		return yearMonthFields(r.Year, r.Month), nil
	default:
		return nil, fmt.Errorf("unsupported request %T", inner)
	}
}

func decodeRequest(mt uint32, fields []tlv.Field) (Request, error) {
	r := tlv.NewRecord(fields)
	var req Request
	switch mt {
	case MsgLogin:
		req = AsUser(Login{Login: r.String(FieldLogin), Password: r.String(FieldPassword)})
	case MsgGetUserInfo:
		req = AsUser(GetUserInfo{})
	case MsgGetSchedule:
		req = AsUser(GetSchedule{Year: r.U16(FieldYear), Month: r.U8(FieldMonth)})
	case MsgSetWorkday:
		req = AsUser(SetWorkday{
			Year:      r.U16(FieldYear),
			Month:     r.U8(FieldMonth),
			Day:       r.U8(FieldDay),
			IsWorking: r.Bool(FieldIsWorking),
		})
	case MsgChangePassword:
		req = AsUser(ChangePassword{
			OldPassword: r.String(FieldOldPassword),
			NewPassword: r.String(FieldNewPassword),
		})
	case MsgGetUserNames:
		ids, err := decodeIDs(r.List(FieldIDs))
		r.Fail(err)
		req = AsUser(GetUserNames{IDs: ids})
	case MsgGetUsers:
		req = AsAdmin(GetUsers{})
	case MsgAddUser:
		u, err := decodeUser(mt, r.Struct(FieldUser))
		r.Fail(err)
		req = AsAdmin(AddUser{User: u})
	case MsgResetPassword:
		req = AsAdmin(ResetPassword{ID: UserID(r.I32(FieldID))})
	case MsgUpdateUser:
		u, err := decodeUser(mt, r.Struct(FieldUser))
		r.Fail(err)
		req = AsAdmin(UpdateUser{User: u})
	case MsgGetRevenue:
		req = AsAdmin(GetRevenue{Year: r.U16(FieldYear), Month: r.U8(FieldMonth)})
	case MsgSetRevenue:
		year, month := r.U16(FieldYear), r.U8(FieldMonth)
		rev, err := decodeRevenue(mt, r.Struct(FieldRevenue))
		r.Fail(err)
		req = AsAdmin(SetRevenue{Year: year, Month: month, Revenue: rev})
	case MsgGetSalaryCalculation:
		req = AsAdmin(GetSalaryCalculation{Year: r.U16(FieldYear), Month: r.U8(FieldMonth)})
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
		return []tlv.Field{tlv.String(FieldToken, d.Token), tlv.I32(FieldID, int32(d.ID))}, nil
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
				tlv.I32(entryID, int32(id)),
				tlv.List(entryValue, days),
			}))
		}
		return append(yearMonthFields(d.Year, d.Month), tlv.List(FieldSchedule, entries)), nil
	case UserNamesResponse:
		entries := make([]tlv.Field, 0, len(d.Names))
		for _, id := range slices.Sorted(maps.Keys(d.Names)) {
			entries = append(entries, tlv.Struct(tlv.ElementID, []tlv.Field{
				tlv.I32(entryID, int32(id)),
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
		records := make([]tlv.Field, len(d.Revenue))
		for i, rev := range d.Revenue {
			records[i] = encodeRevenue(tlv.ElementID, rev)
		}
		return append(yearMonthFields(d.Year, d.Month), tlv.List(FieldRevenue, records)), nil
	case SalaryCalculationResponse:
		salaries := make([]tlv.Field, len(d.Salaries))
		for i, s := range d.Salaries {
			salaries[i] = tlv.Struct(tlv.ElementID, []tlv.Field{
				tlv.I32(salaryID, int32(s.ID)),
				tlv.F64(salaryTotal, s.Total),
				tlv.F64(salaryPaid, s.Paid),
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
		data = LoginResponse{Token: r.String(FieldToken), ID: UserID(r.I32(FieldID))}
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
			ms, err := e.AsStruct()
			if err != nil {
				r.Fail(err)
				break
			}
			u, err := decodeUser(mt, ms)
			r.Fail(err)
			users = append(users, u)
		}
		data = UsersResponse{Users: users}
	case MsgRevenueResponse:
		year, month := r.U16(FieldYear), r.U8(FieldMonth)
		elems := r.List(FieldRevenue)
		var records []Revenue
		for _, e := range elems {
			ms, err := e.AsStruct()
			if err != nil {
				r.Fail(err)
				break
			}
			rev, err := decodeRevenue(mt, ms)
			r.Fail(err)
			records = append(records, rev)
		}
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

func errorFields(e *ProtocolError) []tlv.Field {
	if e.Code == CodeUnknown {
		return []tlv.Field{tlv.String(FieldDetail, e.Detail)}
	}
	return nil
}

// decodeError runs after schema validation, so the detail field is present
// exactly when the tag is Unknown.
func decodeError(mt uint32, fields []tlv.Field) (*ProtocolError, error) {
	e := &ProtocolError{Code: ErrorCode(mt)}
	if f, ok := tlv.GetField(fields, FieldDetail); ok {
		detail, err := f.AsString()
		if err != nil {
			return nil, err
		}
		e.Detail = detail
	}
	return e, nil
}

func encodeUser(id uint16, u User) tlv.Field {
	return tlv.Struct(id, []tlv.Field{
		tlv.I32(userID, int32(u.ID)),
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
		ID:       UserID(r.I32(userID)),
		Login:    r.String(userLogin),
		Name:     r.String(userName),
		IsAdmin:  r.Bool(userIsAdmin),
		IsWorker: r.Bool(userIsWorker),
		Pay:      r.F64(userPay),
		Percent:  r.F64(userPercent),
	}
	return u, r.Err()
}

func encodeRevenue(id uint16, rev Revenue) tlv.Field {
	return tlv.Struct(id, []tlv.Field{
		tlv.U8(revenueDay, rev.Day),
		tlv.F64(revenueWithPercent, rev.WithPercent),
		tlv.F64(revenueWithoutPercent, rev.WithoutPercent),
	})
}

func decodeRevenue(mt uint32, members []tlv.Field) (Revenue, error) {
	if err := Schema.Check(mt, revenueShape, members); err != nil {
		return Revenue{}, err
	}
	r := tlv.NewRecord(members)
	rev := Revenue{
		Day:            r.U8(revenueDay),
		WithPercent:    r.F64(revenueWithPercent),
		WithoutPercent: r.F64(revenueWithoutPercent),
	}
	return rev, r.Err()
}

func decodeSalary(mt uint32, elem tlv.Field) (Salary, error) {
	members, err := structOf(mt, elem, salaryShape)
	if err != nil {
		return Salary{}, err
	}
	r := tlv.NewRecord(members)
	s := Salary{
		ID:    UserID(r.I32(salaryID)),
		Total: r.F64(salaryTotal),
		Paid:  r.F64(salaryPaid),
	}
	return s, r.Err()
}

func decodeIDs(elems []tlv.Field) ([]UserID, error) {
	var ids []UserID
	for _, e := range elems {
		v, err := e.AsI32()
		if err != nil {
			return nil, err
		}
		ids = append(ids, UserID(v))
	}
	return ids, nil
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
		id := UserID(r.I32(entryID))
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
		id := UserID(r.I32(entryID))
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
