package v1

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/shiftctl/internal/observability"
	"github.com/danmuck/shiftctl/internal/protocol"
	"github.com/danmuck/shiftctl/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// Backend executes v1 operations. Methods return *ProtocolError for
// expected failures; any other error is reported to the caller as Unknown.
type Backend interface {
	Login(ctx context.Context, login, password string) (LoginResponse, error)
	// Authenticate resolves a session token. Unknown or revoked tokens fail
	// with ErrUnknownToken.
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
	SetRevenue(ctx context.Context, year uint16, month uint8, rev Revenue) error
	SalaryCalculation(ctx context.Context, year uint16, month uint8) ([]Salary, error)
}

// Dispatcher routes decoded v1 requests to a Backend after checking the
// session token and privilege tier.
type Dispatcher struct {
	backend Backend
}

func NewDispatcher(backend Backend) *Dispatcher {
	return &Dispatcher{backend: backend}
}

// ServeFrame decodes one request frame and returns the answer frame. A
// malformed request returns an error and no frame; the caller drops the
// connection.
func (d *Dispatcher) ServeFrame(ctx context.Context, f frame.Frame) (frame.Frame, error) {
	req, token, err := DecodeRequestFrame(f)
	if err != nil {
		observability.RecordMalformedFrame(SchemaName)
		log.Warn().Err(err).Uint64("message_id", f.Header.MessageID).Msg("v1.ServeFrame malformed request")
		return frame.Frame{}, err
	}
	resp := d.Handle(ctx, token, req)
	return EncodeResponseFrame(f.Header.MessageID, resp)
}

// Handle answers req. It never fails: every outcome is a Response.
func (d *Dispatcher) Handle(ctx context.Context, token string, req Request) Response {
	start := time.Now()
	op, ok := OperationFor(req.MessageType())
	if !ok {
		return Failure(Unknown(fmt.Sprintf("unsupported request %#04x", req.MessageType())))
	}
	resp := d.handle(ctx, op, token, req)
	if resp.Err == nil {
		if err := resp.Validate(); err != nil {
			log.Error().Err(err).Str("op", op.Name).Msg("v1.Handle backend produced invalid response")
			resp = Failure(Unknown("internal: " + err.Error()))
		} else if got := resp.MessageType(); got != op.Response {
			log.Error().Str("op", op.Name).Uint32("got", got).Uint32("want", op.Response).Msg("v1.Handle response variant mismatch")
			resp = Failure(Unknown("internal: response variant mismatch"))
		}
	}
	outcome := observability.OutcomeOK
	if resp.Err != nil {
		outcome = resp.Err.Code.Label()
	}
	observability.RecordProtocolRequest(SchemaName, op.Name, outcome, time.Since(start))
	log.Debug().Str("op", op.Name).Str("outcome", outcome).Msg("v1.Handle")
	return resp
}

func (d *Dispatcher) handle(ctx context.Context, op Operation, token string, req Request) Response {
	if op.Public {
		login, ok := unwrap(req).(Login)
		if !ok {
			return Failure(Unknown("public operation without login payload"))
		}
		out, err := d.backend.Login(ctx, login.Login, login.Password)
		if err != nil {
			return failure(err)
		}
		return Success(out)
	}

	if token == "" {
		return Failure(ErrUnknownToken)
	}
	caller, err := d.backend.Authenticate(ctx, token)
	if err != nil {
		return failure(err)
	}
	if op.Tier == protocol.TierAdmin && !caller.IsAdmin {
		return Failure(ErrForbidden)
	}

	switch r := unwrap(req).(type) {
	case GetUserInfo:
		u, err := d.backend.UserInfo(ctx, caller)
		if err != nil {
			return failure(err)
		}
		return Success(UserInfoResponse{User: u})
	case GetSchedule:
		sched, err := d.backend.Schedule(ctx, caller, r.Year, r.Month)
		if err != nil {
			return failure(err)
		}
		return Success(ScheduleResponse{Year: r.Year, Month: r.Month, Schedule: sched})
	case SetWorkday:
		return acknowledge(d.backend.SetWorkday(ctx, caller, r))
	case ChangePassword:
		if err := d.backend.ChangePassword(ctx, caller, r.OldPassword, r.NewPassword); err != nil {
			return failure(err)
		}
		return Success(PasswordChanged{})
	case GetUserNames:
		names, err := d.backend.UserNames(ctx, caller, r.IDs)
		if err != nil {
			return failure(err)
		}
		return Success(UserNamesResponse{Names: names})
	case GetUsers:
		users, err := d.backend.Users(ctx)
		if err != nil {
			return failure(err)
		}
		return Success(UsersResponse{Users: users})
	case AddUser:
		return acknowledge(d.backend.AddUser(ctx, r.User))
	case ResetPassword:
		if err := d.backend.ResetPassword(ctx, r.ID); err != nil {
			return failure(err)
		}
		return Success(PasswordReset{})
	case UpdateUser:
		return acknowledge(d.backend.UpdateUser(ctx, r.User))
	case GetRevenue:
		records, err := d.backend.Revenue(ctx, r.Year, r.Month)
		if err != nil {
			return failure(err)
		}
		return Success(RevenueResponse{Year: r.Year, Month: r.Month, Revenue: records})
	case SetRevenue:
		return acknowledge(d.backend.SetRevenue(ctx, r.Year, r.Month, r.Revenue))
	case GetSalaryCalculation:
		salaries, err := d.backend.SalaryCalculation(ctx, r.Year, r.Month)
		if err != nil {
			return failure(err)
		}
		return Success(SalaryCalculationResponse{Salaries: salaries})
	default:
		return Failure(Unknown(fmt.Sprintf("unsupported request %T", r)))
	}
}

func unwrap(req Request) any {
	switch s := req.(type) {
	case UserScope:
		return s.Request
	case AdminScope:
		return s.Request
	default:
		return nil
	}
}

func acknowledge(err error) Response {
	if err != nil {
		return failure(err)
	}
	return Success(Acknowledged{})
}

// failure maps a backend error onto the closed error set.
func failure(err error) Response {
	var pe *ProtocolError
	if errors.As(err, &pe) && pe.Code.Valid() {
		return Failure(pe)
	}
	return Failure(Unknown(err.Error()))
}
