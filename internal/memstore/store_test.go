package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/shiftctl/internal/auth"
	"github.com/danmuck/shiftctl/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T, payroll Payroll) *Store {
	t.Helper()
	iss, err := auth.NewIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	s, err := New(Options{Issuer: iss, Payroll: payroll, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	_, err = s.Bootstrap(User{Login: "root", Name: "Root", IsAdmin: true}, "rootpw")
	require.NoError(t, err)
	return s
}

func TestBootstrapIsIdempotent(t *testing.T) {
	testlog.Start(t)
	s := newTestStore(t, nil)
	id, err := s.Bootstrap(User{Login: "root", IsAdmin: true}, "other")
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
	require.Len(t, s.Users(context.Background()), 1)

	_, _, err = s.Login(context.Background(), "root", "rootpw")
	require.NoError(t, err, "second bootstrap must not replace the password")
}

func TestLoginAuthenticate(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	s := newTestStore(t, nil)

	_, _, err := s.Login(ctx, "root", "nope")
	require.ErrorIs(t, err, ErrLoginFailed)
	_, _, err = s.Login(ctx, "nobody", "rootpw")
	require.ErrorIs(t, err, ErrLoginFailed)

	token, u, err := s.Login(ctx, "root", "rootpw")
	require.NoError(t, err)
	require.True(t, u.IsAdmin)

	got, err := s.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, u, got)

	_, err = s.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, ErrUnknownToken)
}

func TestAddUserStartsWithLoginAsPassword(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	s := newTestStore(t, nil)

	id, err := s.AddUser(ctx, User{ID: 99, Login: "ann", Name: "Ann", IsWorker: true})
	require.NoError(t, err)
	require.Equal(t, uint64(2), id, "requested id is ignored")

	_, u, err := s.Login(ctx, "ann", "ann")
	require.NoError(t, err)
	require.Equal(t, id, u.ID)

	_, err = s.AddUser(ctx, User{Login: "ann"})
	require.ErrorIs(t, err, ErrUserExists)
	_, err = s.AddUser(ctx, User{Login: "  "})
	require.ErrorIs(t, err, ErrEmptyLogin)
}

func TestAddUserConcurrentSameLoginAdmitsOne(t *testing.T) {
	testlog.Start(t)
	s := newTestStore(t, nil)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddUser(context.Background(), User{Login: "dup"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrUserExists)
	}
	require.Equal(t, 1, ok)
	require.Len(t, s.Users(context.Background()), 2)
}

func TestChangePassword(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	s := newTestStore(t, nil)

	require.ErrorIs(t, s.ChangePassword(ctx, 1, "wrong", "new"), ErrLoginFailed)
	require.NoError(t, s.ChangePassword(ctx, 1, "rootpw", "new"))
	_, _, err := s.Login(ctx, "root", "new")
	require.NoError(t, err)
	require.ErrorIs(t, s.ChangePassword(ctx, 42, "a", "b"), ErrNoSuchUser)
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	s := newTestStore(t, nil)
	id, err := s.AddUser(ctx, User{Login: "ann"})
	require.NoError(t, err)
	require.NoError(t, s.ChangePassword(ctx, id, "ann", "secret"))

	annToken, _, err := s.Login(ctx, "ann", "secret")
	require.NoError(t, err)
	rootToken, _, err := s.Login(ctx, "root", "rootpw")
	require.NoError(t, err)

	require.NoError(t, s.ResetPassword(ctx, id))

	_, err = s.Authenticate(ctx, annToken)
	require.ErrorIs(t, err, ErrUnknownToken)
	_, err = s.Authenticate(ctx, rootToken)
	require.NoError(t, err, "other users keep their sessions")

	_, _, err = s.Login(ctx, "ann", "ann")
	require.NoError(t, err)
	require.ErrorIs(t, s.ResetPassword(ctx, 77), ErrNoSuchUser)
}

func TestUpdateUser(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	s := newTestStore(t, nil)
	id, err := s.AddUser(ctx, User{Login: "ann"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateUser(ctx, User{ID: id, Login: "anna", Name: "Anna", Pay: 100}))
	u, err := s.User(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "anna", u.Login)
	_, _, err = s.Login(ctx, "anna", "ann")
	require.NoError(t, err, "rename keeps the password")

	require.ErrorIs(t, s.UpdateUser(ctx, User{ID: id, Login: "root"}), ErrUserExists)
	require.ErrorIs(t, s.UpdateUser(ctx, User{ID: 55, Login: "x"}), ErrNoSuchUser)
}

func TestScheduleCoversEveryUserAndDay(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	s := newTestStore(t, nil)
	id, err := s.AddUser(ctx, User{Login: "ann"})
	require.NoError(t, err)

	require.NoError(t, s.SetWorkday(ctx, id, 2024, 2, 29, true))
	require.ErrorIs(t, s.SetWorkday(ctx, id, 2023, 2, 29, true), ErrInvalidDate)
	require.ErrorIs(t, s.SetWorkday(ctx, 9, 2024, 2, 1, true), ErrNoSuchUser)

	sched, err := s.Schedule(ctx, 2024, 2)
	require.NoError(t, err)
	require.Len(t, sched, 2)
	require.Len(t, sched[1], 29)
	require.Len(t, sched[id], 29)
	require.True(t, sched[id][28])
	require.False(t, sched[id][0])

	_, err = s.Schedule(ctx, 2024, 13)
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestNamesSkipsUnknownIDs(t *testing.T) {
	testlog.Start(t)
	s := newTestStore(t, nil)
	require.Equal(t, map[uint64]string{1: "Root"}, s.Names(context.Background(), []uint64{1, 5}))
}

func TestRevenueDayAndMonthWrites(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	s := newTestStore(t, nil)

	require.NoError(t, s.SetDayRevenue(ctx, 2024, 4, 3, DayRevenue{WithPercent: 10}))
	require.ErrorIs(t, s.SetDayRevenue(ctx, 2024, 4, 31, DayRevenue{}), ErrInvalidDate)
	got, err := s.Revenue(ctx, 2024, 4)
	require.NoError(t, err)
	require.Equal(t, map[uint8]DayRevenue{3: {WithPercent: 10}}, got)

	require.ErrorIs(t, s.ReplaceRevenue(ctx, 2024, 4, make([]DayRevenue, 31)), ErrInvalidDate)
	month := make([]DayRevenue, 30)
	month[0] = DayRevenue{WithoutPercent: 5}
	require.NoError(t, s.ReplaceRevenue(ctx, 2024, 4, month))
	got, err = s.Revenue(ctx, 2024, 4)
	require.NoError(t, err)
	require.Len(t, got, 30)
	require.Equal(t, DayRevenue{WithoutPercent: 5}, got[1])
	require.Equal(t, DayRevenue{}, got[3])
}

func TestPayslipsNeedPayroll(t *testing.T) {
	testlog.Start(t)
	s := newTestStore(t, nil)
	_, err := s.Payslips(context.Background(), 2024, 1)
	require.ErrorIs(t, err, ErrNoPayroll)
}

func TestPayslipsGatherMonth(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	var seen PayrollInput
	s := newTestStore(t, PayrollFunc(func(_ context.Context, in PayrollInput) ([]Payslip, error) {
		seen = in
		return []Payslip{{UserID: 1, First: 10, FirstDays: 15, Second: 20, SecondDays: 15, Paid: 5}}, nil
	}))
	require.NoError(t, s.SetDayRevenue(ctx, 2024, 6, 30, DayRevenue{WithPercent: 7}))
	require.NoError(t, s.SetWorkday(ctx, 1, 2024, 6, 1, true))

	slips, err := s.Payslips(ctx, 2024, 6)
	require.NoError(t, err)
	require.Len(t, slips, 1)
	require.Equal(t, 30.0, slips[0].Total())

	require.Len(t, seen.Revenue, 30)
	require.Equal(t, 7.0, seen.Revenue[29].WithPercent)
	require.True(t, seen.Schedule[1][0])
	require.Len(t, seen.Users, 1)
}

func TestNewRequiresIssuer(t *testing.T) {
	testlog.Start(t)
	_, err := New(Options{})
	require.ErrorIs(t, err, ErrNoIssuer)
}
