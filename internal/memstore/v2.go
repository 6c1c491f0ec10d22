package memstore

import (
	"context"
	"errors"

	"github.com/danmuck/shiftctl/internal/calendar"
	v2 "github.com/danmuck/shiftctl/internal/protocol/v2"
)

// V2 serves the store to the v2 dispatcher.
func (s *Store) V2() v2.Backend {
	return v2Backend{s: s}
}

type v2Backend struct {
	s *Store
}

func toV2User(u User) v2.User {
	return v2.User{
		ID:       v2.UserID(u.ID),
		Login:    u.Login,
		Name:     u.Name,
		IsAdmin:  u.IsAdmin,
		IsWorker: u.IsWorker,
		Pay:      u.Pay,
		Percent:  u.Percent,
	}
}

func fromV2User(u v2.User) User {
	return User{
		ID:       uint64(u.ID),
		Login:    u.Login,
		Name:     u.Name,
		IsAdmin:  u.IsAdmin,
		IsWorker: u.IsWorker,
		Pay:      u.Pay,
		Percent:  u.Percent,
	}
}

// v2Err maps store failures onto the v2 error set. A taken login has no v2
// variant and ends up as Unknown.
func v2Err(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrLoginFailed):
		return v2.ErrLoginFailed
	case errors.Is(err, ErrUnknownToken):
		return v2.ErrUnknownToken
	default:
		return err
	}
}

func (b v2Backend) Login(ctx context.Context, login, password string) (string, error) {
	token, _, err := b.s.Login(ctx, login, password)
	return token, v2Err(err)
}

func (b v2Backend) Authenticate(ctx context.Context, token string) (v2.User, error) {
	u, err := b.s.Authenticate(ctx, token)
	if err != nil {
		return v2.User{}, v2Err(err)
	}
	return toV2User(u), nil
}

func (b v2Backend) UserInfo(ctx context.Context, caller v2.User) (v2.User, error) {
	u, err := b.s.User(ctx, uint64(caller.ID))
	if err != nil {
		return v2.User{}, err
	}
	return toV2User(u), nil
}

func (b v2Backend) Schedule(ctx context.Context, _ v2.User, year uint16, month uint8) (map[v2.UserID][]bool, error) {
	sched, err := b.s.Schedule(ctx, year, month)
	if err != nil {
		return nil, err
	}
	out := make(map[v2.UserID][]bool, len(sched))
	for id, days := range sched {
		out[v2.UserID(id)] = days
	}
	return out, nil
}

func (b v2Backend) SetWorkday(ctx context.Context, caller v2.User, req v2.SetWorkday) error {
	return b.s.SetWorkday(ctx, uint64(caller.ID), req.Year, req.Month, req.Day, req.IsWorking)
}

func (b v2Backend) ChangePassword(ctx context.Context, caller v2.User, oldPassword, newPassword string) error {
	return v2Err(b.s.ChangePassword(ctx, uint64(caller.ID), oldPassword, newPassword))
}

func (b v2Backend) UserNames(ctx context.Context, _ v2.User, ids []v2.UserID) (map[v2.UserID]string, error) {
	lookup := make([]uint64, len(ids))
	for i, id := range ids {
		lookup[i] = uint64(id)
	}
	names := b.s.Names(ctx, lookup)
	out := make(map[v2.UserID]string, len(names))
	for id, name := range names {
		out[v2.UserID(id)] = name
	}
	return out, nil
}

func (b v2Backend) Users(ctx context.Context) ([]v2.User, error) {
	users := b.s.Users(ctx)
	out := make([]v2.User, len(users))
	for i, u := range users {
		out[i] = toV2User(u)
	}
	return out, nil
}

func (b v2Backend) AddUser(ctx context.Context, u v2.User) error {
	_, err := b.s.AddUser(ctx, fromV2User(u))
	return v2Err(err)
}

func (b v2Backend) ResetPassword(ctx context.Context, id v2.UserID) error {
	return b.s.ResetPassword(ctx, uint64(id))
}

func (b v2Backend) UpdateUser(ctx context.Context, u v2.User) error {
	return v2Err(b.s.UpdateUser(ctx, fromV2User(u)))
}

// Revenue answers with the whole month, or nothing when no day was recorded.
func (b v2Backend) Revenue(ctx context.Context, year uint16, month uint8) ([]v2.Revenue, error) {
	byDay, err := b.s.Revenue(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if len(byDay) == 0 {
		return []v2.Revenue{}, nil
	}
	out := make([]v2.Revenue, calendar.DaysIn(year, month))
	for day, r := range byDay {
		out[day-1] = v2.Revenue{WithPercent: r.WithPercent, WithoutPercent: r.WithoutPercent}
	}
	return out, nil
}

func (b v2Backend) SetRevenue(ctx context.Context, year uint16, month uint8, records []v2.Revenue) error {
	days := make([]DayRevenue, len(records))
	for i, r := range records {
		days[i] = DayRevenue{WithPercent: r.WithPercent, WithoutPercent: r.WithoutPercent}
	}
	return b.s.ReplaceRevenue(ctx, year, month, days)
}

func (b v2Backend) SalaryCalculation(ctx context.Context, year uint16, month uint8) ([]v2.Salary, error) {
	slips, err := b.s.Payslips(ctx, year, month)
	if err != nil {
		return nil, err
	}
	out := make([]v2.Salary, len(slips))
	for i, p := range slips {
		out[i] = v2.Salary{
			ID:         v2.UserID(p.UserID),
			First:      p.First,
			FirstDays:  p.FirstDays,
			Second:     p.Second,
			SecondDays: p.SecondDays,
		}
	}
	return out, nil
}
