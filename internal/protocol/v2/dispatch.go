package v2

import (
	"context"
	"errors"
	"time"

	"github.com/danmuck/shiftctl/internal/observability"
	"github.com/danmuck/shiftctl/internal/protocol"
	"github.com/danmuck/shiftctl/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// Backend executes v2 operations. Errors other than *ProtocolError are
// logged and answered with ErrUnknown; their text never reaches the wire.
type Backend interface {
	Login(ctx context.Context, login, password string) (token string, err error)
	Authenticate(ctx context.Context, token string) (User, error)

	UserInfo(ctx context.Context, caller User) (User, error)
	Schedule(ctx context.Context, caller User, year uint16, month uint8) (map[UserID][]bool, error)
	SetWorkday(ctx context.Context, caller User, req SetWorkday) error
	ChangePassword(ctx context.Context, caller User, oldPassword, newPassword string) error
	UserNames(ctx context.Context, caller User, ids []UserID) (map[UserID]string, error)

	Users(ctx context.Context) ([]User, error)
	AddUser(ctx context.Context, u User) error
	ResetPassword(ctx context.Context, id UserID) error
	UpdateUser(ctx context.Context, u User) error
	Revenue(ctx context.Context, year uint16, month uint8) ([]Revenue, error)
	SetRevenue(ctx context.Context, year uint16, month uint8, records []Revenue) error
	SalaryCalculation(ctx context.Context, year uint16, month uint8) ([]Salary, error)
}

type Dispatcher struct {
	backend Backend
}

func NewDispatcher(backend Backend) *Dispatcher {
	return &Dispatcher{backend: backend}
}

// ServeFrame answers one request frame. Malformed input returns an error so
// the connection is dropped.
func (d *Dispatcher) ServeFrame(ctx context.Context, f frame.Frame) (frame.Frame, error) {
	req, token, err := DecodeRequestFrame(f)
	if err != nil {
		observability.RecordMalformedFrame(SchemaName)
		log.Warn().Err(err).Uint64("message_id", f.Header.MessageID).Msg("v2.Dispatcher.ServeFrame malformed request")
		return frame.Frame{}, err
	}
	return EncodeResponseFrame(f.Header.MessageID, d.Handle(ctx, token, req))
}

func (d *Dispatcher) Handle(ctx context.Context, token string, req Request) Response {
	start := time.Now()
	op, ok := OperationFor(req.MessageType())
	if !ok {
		log.Error().Uint32("message_type", req.MessageType()).Msg("v2.Dispatcher.Handle no operation")
		return Failure(ErrUnknown)
	}

	resp := d.authorize(ctx, op, token, req)
	if resp.Err == nil {
		if err := resp.Validate(); err != nil {
			log.Error().Err(err).Str("op", op.Name).Msg("v2.Dispatcher.Handle backend produced invalid response")
			resp = Failure(ErrUnknown)
		} else if resp.MessageType() != op.Response {
			log.Error().Str("op", op.Name).Uint32("got", resp.MessageType()).Msg("v2.Dispatcher.Handle response variant mismatch")
			resp = Failure(ErrUnknown)
		}
	}

	outcome := observability.OutcomeOK
	if resp.Err != nil {
		outcome = resp.Err.Code.Label()
	}
	observability.RecordProtocolRequest(SchemaName, op.Name, outcome, time.Since(start))
	log.Debug().Str("op", op.Name).Str("outcome", outcome).Msg("v2.Dispatcher.Handle")
	return resp
}

func (d *Dispatcher) authorize(ctx context.Context, op Operation, token string, req Request) Response {
	if login, ok := req.(Login); ok && op.Public {
		tok, err := d.backend.Login(ctx, login.Login, login.Password)
		if err != nil {
			return failure(op, err)
		}
		return Success(LoginResponse{Token: tok})
	}
	if token == "" {
		return Failure(ErrUnknownToken)
	}
	caller, err := d.backend.Authenticate(ctx, token)
	if err != nil {
		return failure(op, err)
	}
	if op.Tier == protocol.TierAdmin && !caller.IsAdmin {
		return Failure(ErrForbidden)
	}
	return d.dispatch(ctx, op, caller, req)
}

func (d *Dispatcher) dispatch(ctx context.Context, op Operation, caller User, req Request) Response {
	var (
		data ResponseData
		err  error
	)
	switch r := req.(type) {
	case GetUserInfo:
		var u User
		u, err = d.backend.UserInfo(ctx, caller)
		data = UserInfoResponse{User: u}
	case GetSchedule:
		var sched map[UserID][]bool
		sched, err = d.backend.Schedule(ctx, caller, r.Year, r.Month)
		data = ScheduleResponse{Year: r.Year, Month: r.Month, Schedule: sched}
	case SetWorkday:
		err = d.backend.SetWorkday(ctx, caller, r)
		data = Acknowledged{}
	case ChangePassword:
		err = d.backend.ChangePassword(ctx, caller, r.OldPassword, r.NewPassword)
		data = PasswordChanged{}
	case GetUserNames:
		var names map[UserID]string
		names, err = d.backend.UserNames(ctx, caller, r.IDs)
		data = UserNamesResponse{Names: names}
	case GetUsers:
		var users []User
		users, err = d.backend.Users(ctx)
		data = UsersResponse{Users: users}
	case AddUser:
		err = d.backend.AddUser(ctx, r.User)
		data = Acknowledged{}
	case ResetPassword:
		err = d.backend.ResetPassword(ctx, r.ID)
		data = PasswordReset{}
	case UpdateUser:
		err = d.backend.UpdateUser(ctx, r.User)
		data = Acknowledged{}
	case GetRevenue:
		var records []Revenue
		records, err = d.backend.Revenue(ctx, r.Year, r.Month)
		data = RevenueResponse{Year: r.Year, Month: r.Month, Revenue: records}
	case SetRevenue:
		err = d.backend.SetRevenue(ctx, r.Year, r.Month, r.Revenue)
		data = Acknowledged{}
	case GetSalaryCalculation:
		var salaries []Salary
		salaries, err = d.backend.SalaryCalculation(ctx, r.Year, r.Month)
		data = SalaryCalculationResponse{Salaries: salaries}
	default:
		log.Error().Str("op", op.Name).Msgf("v2.Dispatcher.dispatch unhandled %T", req)
		return Failure(ErrUnknown)
	}
	if err != nil {
		return failure(op, err)
	}
	return Success(data)
}

func failure(op Operation, err error) Response {
	var pe *ProtocolError
	if errors.As(err, &pe) && pe.Code.Valid() {
		return Failure(pe)
	}
	log.Error().Err(err).Str("op", op.Name).Msg("v2.Dispatcher backend failure")
	return Failure(ErrUnknown)
}
