package memstore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	v1 "github.com/danmuck/shiftctl/internal/protocol/v1"
)

// V1 serves the store to the v1 dispatcher.
func (s *Store) V1() v1.Backend {
	return v1Backend{s: s}
}

type v1Backend struct {
	s *Store
}

var errIDRange = errors.New("memstore: user id outside v1 range")

func toV1ID(id uint64) (v1.UserID, error) {
	if id > uint64(v1.MaxUserID) {
		return 0, fmt.Errorf("%w: %d", errIDRange, id)
	}
	return v1.UserID(id), nil
}

func fromV1ID(id v1.UserID) (uint64, bool) {
	if id < 0 {
		return 0, false
	}
	return uint64(id), true
}

func toV1User(u User) (v1.User, error) {
	id, err := toV1ID(u.ID)
	if err != nil {
		return v1.User{}, err
	}
	return v1.User{
		ID:       id,
		Login:    u.Login,
		Name:     u.Name,
		IsAdmin:  u.IsAdmin,
		IsWorker: u.IsWorker,
		Pay:      u.Pay,
		Percent:  u.Percent,
	}, nil
}

func fromV1User(u v1.User) User {
	id, _ := fromV1ID(u.ID)
	return User{
		ID:       id,
		Login:    u.Login,
		Name:     u.Name,
		IsAdmin:  u.IsAdmin,
		IsWorker: u.IsWorker,
		Pay:      u.Pay,
		Percent:  u.Percent,
	}
}

// v1Err maps store failures onto the v1 error set. Anything unmapped is
// reported as Unknown by the dispatcher.
func v1Err(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrLoginFailed):
		return v1.ErrLoginFailed
	case errors.Is(err, ErrUnknownToken):
		return v1.ErrUnknownToken
	case errors.Is(err, ErrUserExists):
		return v1.ErrUserExist
	default:
		return err
	}
}

func (b v1Backend) Login(ctx context.Context, login, password string) (v1.LoginResponse, error) {
	token, u, err := b.s.Login(ctx, login, password)
	if err != nil {
		return v1.LoginResponse{}, v1Err(err)
	}
	id, err := toV1ID(u.ID)
	if err != nil {
		return v1.LoginResponse{}, err
	}
	return v1.LoginResponse{Token: token, ID: id}, nil
}

func (b v1Backend) Authenticate(ctx context.Context, token string) (v1.User, error) {
	u, err := b.s.Authenticate(ctx, token)
	if err != nil {
		return v1.User{}, v1Err(err)
	}
	return toV1User(u)
}

func (b v1Backend) UserInfo(ctx context.Context, caller v1.User) (v1.User, error) {
	id, _ := fromV1ID(caller.ID)
	u, err := b.s.User(ctx, id)
	if err != nil {
		return v1.User{}, v1Err(err)
	}
	return toV1User(u)
}

func (b v1Backend) Schedule(ctx context.Context, _ v1.User, year uint16, month uint8) (map[v1.UserID][]bool, error) {
	sched, err := b.s.Schedule(ctx, year, month)
	if err != nil {
		return nil, err
	}
	out := make(map[v1.UserID][]bool, len(sched))
	for id, days := range sched {
		vid, err := toV1ID(id)
		if err != nil {
			return nil, err
		}
		out[vid] = days
	}
	return out, nil
}

func (b v1Backend) SetWorkday(ctx context.Context, caller v1.User, req v1.SetWorkday) error {
	id, _ := fromV1ID(caller.ID)
	return v1Err(b.s.SetWorkday(ctx, id, req.Year, req.Month, req.Day, req.IsWorking))
}

func (b v1Backend) ChangePassword(ctx context.Context, caller v1.User, oldPassword, newPassword string) error {
	id, _ := fromV1ID(caller.ID)
	return v1Err(b.s.ChangePassword(ctx, id, oldPassword, newPassword))
}

func (b v1Backend) UserNames(ctx context.Context, _ v1.User, ids []v1.UserID) (map[v1.UserID]string, error) {
	lookup := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if uid, ok := fromV1ID(id); ok {
			lookup = append(lookup, uid)
		}
	}
	names := b.s.Names(ctx, lookup)
	out := make(map[v1.UserID]string, len(names))
	for id, name := range names {
		vid, err := toV1ID(id)
		if err != nil {
			return nil, err
		}
		out[vid] = name
	}
	return out, nil
}

func (b v1Backend) Users(ctx context.Context) ([]v1.User, error) {
	users := b.s.Users(ctx)
	out := make([]v1.User, 0, len(users))
	for _, u := range users {
		vu, err := toV1User(u)
		if err != nil {
			return nil, err
		}
		out = append(out, vu)
	}
	return out, nil
}

func (b v1Backend) AddUser(ctx context.Context, u v1.User) error {
	_, err := b.s.AddUser(ctx, fromV1User(u))
	return v1Err(err)
}

func (b v1Backend) ResetPassword(ctx context.Context, id v1.UserID) error {
	uid, ok := fromV1ID(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchUser, id)
	}
	return v1Err(b.s.ResetPassword(ctx, uid))
}

func (b v1Backend) UpdateUser(ctx context.Context, u v1.User) error {
	if _, ok := fromV1ID(u.ID); !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchUser, u.ID)
	}
	return v1Err(b.s.UpdateUser(ctx, fromV1User(u)))
}

func (b v1Backend) Revenue(ctx context.Context, year uint16, month uint8) ([]v1.Revenue, error) {
	byDay, err := b.s.Revenue(ctx, year, month)
	if err != nil {
		return nil, err
	}
	out := make([]v1.Revenue, 0, len(byDay))
	for day, r := range byDay {
		out = append(out, v1.Revenue{Day: day, WithPercent: r.WithPercent, WithoutPercent: r.WithoutPercent})
	}
	slices.SortFunc(out, func(a, b v1.Revenue) int { return int(a.Day) - int(b.Day) })
	return out, nil
}

func (b v1Backend) SetRevenue(ctx context.Context, year uint16, month uint8, rev v1.Revenue) error {
	return b.s.SetDayRevenue(ctx, year, month, rev.Day, DayRevenue{
		WithPercent:    rev.WithPercent,
		WithoutPercent: rev.WithoutPercent,
	})
}

func (b v1Backend) SalaryCalculation(ctx context.Context, year uint16, month uint8) ([]v1.Salary, error) {
	slips, err := b.s.Payslips(ctx, year, month)
	if err != nil {
		return nil, err
	}
	out := make([]v1.Salary, 0, len(slips))
	for _, p := range slips {
		id, err := toV1ID(p.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, v1.Salary{ID: id, Total: p.Total(), Paid: p.Paid})
	}
	return out, nil
}
