package memstore

import (
	"context"
	"errors"
	"testing"

	v1 "github.com/danmuck/shiftctl/internal/protocol/v1"
	v2 "github.com/danmuck/shiftctl/internal/protocol/v2"
	"github.com/danmuck/shiftctl/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func loginV1(t *testing.T, d *v1.Dispatcher, login, password string) string {
	t.Helper()
	resp := d.Handle(context.Background(), "", v1.AsUser(v1.Login{Login: login, Password: password}))
	require.Nil(t, resp.Err)
	return resp.Data.(v1.LoginResponse).Token
}

func loginV2(t *testing.T, d *v2.Dispatcher, login, password string) string {
	t.Helper()
	resp := d.Handle(context.Background(), "", v2.Login{Login: login, Password: password})
	require.Nil(t, resp.Err)
	return resp.Data.(v2.LoginResponse).Token
}

func TestV1AddUserConflictIsUserExist(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	d := v1.NewDispatcher(newTestStore(t, nil).V1())
	token := loginV1(t, d, "root", "rootpw")

	add := v1.AsAdmin(v1.AddUser{User: v1.User{Login: "ann", Name: "Ann", IsWorker: true}})
	resp := d.Handle(ctx, token, add)
	require.Nil(t, resp.Err)
	require.Equal(t, v1.Acknowledged{}, resp.Data)

	resp = d.Handle(ctx, token, add)
	require.True(t, errors.Is(resp.Err, v1.ErrUserExist), "got %v", resp.Err)
}

func TestV2AddUserConflictIsUnknown(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	d := v2.NewDispatcher(newTestStore(t, nil).V2())
	token := loginV2(t, d, "root", "rootpw")

	add := v2.AddUser{User: v2.User{Login: "ann"}}
	require.Nil(t, d.Handle(ctx, token, add).Err)
	resp := d.Handle(ctx, token, add)
	require.True(t, errors.Is(resp.Err, v2.ErrUnknown), "got %v", resp.Err)
}

func TestV1SessionLifecycle(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	s := newTestStore(t, nil)
	d := v1.NewDispatcher(s.V1())
	root := loginV1(t, d, "root", "rootpw")

	require.Nil(t, d.Handle(ctx, root, v1.AsAdmin(v1.AddUser{User: v1.User{Login: "ann", IsWorker: true}})).Err)
	ann := loginV1(t, d, "ann", "ann")

	resp := d.Handle(ctx, ann, v1.AsAdmin(v1.GetUsers{}))
	require.True(t, errors.Is(resp.Err, v1.ErrForbidden), "got %v", resp.Err)

	resp = d.Handle(ctx, ann, v1.AsUser(v1.ChangePassword{OldPassword: "bad", NewPassword: "x"}))
	require.True(t, errors.Is(resp.Err, v1.ErrLoginFailed), "got %v", resp.Err)

	resp = d.Handle(ctx, ann, v1.AsUser(v1.SetWorkday{Year: 2024, Month: 2, Day: 29, IsWorking: true}))
	require.Nil(t, resp.Err)
	resp = d.Handle(ctx, ann, v1.AsUser(v1.GetSchedule{Year: 2024, Month: 2}))
	require.Nil(t, resp.Err)
	sched := resp.Data.(v1.ScheduleResponse).Schedule
	require.Len(t, sched, 2)
	require.True(t, sched[2][28])

	resp = d.Handle(ctx, root, v1.AsAdmin(v1.ResetPassword{ID: 2}))
	require.Equal(t, v1.PasswordReset{}, resp.Data)
	resp = d.Handle(ctx, ann, v1.AsUser(v1.GetUserInfo{}))
	require.True(t, errors.Is(resp.Err, v1.ErrUnknownToken), "got %v", resp.Err)
}

func TestV1RevenueByDay(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	d := v1.NewDispatcher(newTestStore(t, nil).V1())
	root := loginV1(t, d, "root", "rootpw")

	for _, day := range []uint8{9, 2} {
		set := v1.AsAdmin(v1.SetRevenue{Year: 2024, Month: 5, Revenue: v1.Revenue{Day: day, WithPercent: float64(day)}})
		require.Nil(t, d.Handle(ctx, root, set).Err)
	}
	resp := d.Handle(ctx, root, v1.AsAdmin(v1.GetRevenue{Year: 2024, Month: 5}))
	require.Nil(t, resp.Err)
	require.Equal(t, []v1.Revenue{{Day: 2, WithPercent: 2}, {Day: 9, WithPercent: 9}}, resp.Data.(v1.RevenueResponse).Revenue)
}

func TestV2RevenueWholeMonth(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	d := v2.NewDispatcher(newTestStore(t, nil).V2())
	root := loginV2(t, d, "root", "rootpw")

	resp := d.Handle(ctx, root, v2.GetRevenue{Year: 2023, Month: 2})
	require.Nil(t, resp.Err)
	require.Empty(t, resp.Data.(v2.RevenueResponse).Revenue)

	month := make([]v2.Revenue, 28)
	month[27] = v2.Revenue{WithPercent: 3}
	require.Nil(t, d.Handle(ctx, root, v2.SetRevenue{Year: 2023, Month: 2, Revenue: month}).Err)

	resp = d.Handle(ctx, root, v2.GetRevenue{Year: 2023, Month: 2})
	require.Nil(t, resp.Err)
	require.Equal(t, month, resp.Data.(v2.RevenueResponse).Revenue)
}

func TestSalaryWithoutPayrollIsUnknown(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	s := newTestStore(t, nil)

	d1 := v1.NewDispatcher(s.V1())
	resp := d1.Handle(ctx, loginV1(t, d1, "root", "rootpw"), v1.AsAdmin(v1.GetSalaryCalculation{Year: 2024, Month: 1}))
	require.True(t, errors.Is(resp.Err, v1.ErrUnknown), "got %v", resp.Err)
	require.Contains(t, resp.Err.Detail, "no payroll")

	d2 := v2.NewDispatcher(s.V2())
	resp2 := d2.Handle(ctx, loginV2(t, d2, "root", "rootpw"), v2.GetSalaryCalculation{Year: 2024, Month: 1})
	require.True(t, errors.Is(resp2.Err, v2.ErrUnknown), "got %v", resp2.Err)
}

func TestSalaryShapesPerSchema(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	s := newTestStore(t, PayrollFunc(func(context.Context, PayrollInput) ([]Payslip, error) {
		return []Payslip{{UserID: 1, First: 100, FirstDays: 15, Second: 50, SecondDays: 16, Paid: 30}}, nil
	}))

	d1 := v1.NewDispatcher(s.V1())
	resp := d1.Handle(ctx, loginV1(t, d1, "root", "rootpw"), v1.AsAdmin(v1.GetSalaryCalculation{Year: 2024, Month: 1}))
	require.Nil(t, resp.Err)
	require.Equal(t, []v1.Salary{{ID: 1, Total: 150, Paid: 30}}, resp.Data.(v1.SalaryCalculationResponse).Salaries)

	d2 := v2.NewDispatcher(s.V2())
	resp2 := d2.Handle(ctx, loginV2(t, d2, "root", "rootpw"), v2.GetSalaryCalculation{Year: 2024, Month: 1})
	require.Nil(t, resp2.Err)
	require.Equal(t, []v2.Salary{{ID: 1, First: 100, FirstDays: 15, Second: 50, SecondDays: 16}}, resp2.Data.(v2.SalaryCalculationResponse).Salaries)
}

func TestTokensWorkAcrossSchemas(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	s := newTestStore(t, nil)
	token := loginV1(t, v1.NewDispatcher(s.V1()), "root", "rootpw")

	resp := v2.NewDispatcher(s.V2()).Handle(ctx, token, v2.GetUserInfo{})
	require.Nil(t, resp.Err)
	require.Equal(t, "root", resp.Data.(v2.UserInfoResponse).User.Login)
}
