package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	v1 "github.com/danmuck/shiftctl/internal/protocol/v1"
	v2 "github.com/danmuck/shiftctl/internal/protocol/v2"
)

var errUsage = errors.New("bad arguments")

type runner interface {
	login(ctx context.Context, login, password string) error
	run(ctx context.Context, cmd string, args []string) (any, error)
}

type roundTripper interface {
	v1.RoundTripper
	v2.RoundTripper
}

func newRunner(schema string, rt roundTripper, prompt promptFunc, timeout time.Duration) (runner, error) {
	switch schema {
	case "v1":
		return &v1Runner{c: v1.NewClient(rt), prompt: prompt, timeout: timeout}, nil
	case "v2":
		return &v2Runner{c: v2.NewClient(rt), prompt: prompt, timeout: timeout}, nil
	default:
		return nil, fmt.Errorf("unknown schema %q", schema)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func wantArgs(cmd string, args []string, n int, shape string) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s %s", errUsage, cmd, shape)
	}
	return nil
}

func parseYearMonth(args []string) (uint16, uint8, error) {
	year, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: year %q", errUsage, args[0])
	}
	month, err := strconv.ParseUint(args[1], 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: month %q", errUsage, args[1])
	}
	return uint16(year), uint8(month), nil
}

func parseWorkday(args []string) (year uint16, month, day uint8, working bool, err error) {
	if year, month, err = parseYearMonth(args); err != nil {
		return
	}
	d, err := strconv.ParseUint(args[2], 10, 8)
	if err != nil {
		err = fmt.Errorf("%w: day %q", errUsage, args[2])
		return
	}
	day = uint8(d)
	working, err = strconv.ParseBool(args[3])
	if err != nil {
		err = fmt.Errorf("%w: is_working %q", errUsage, args[3])
	}
	return
}

func parseIDs(args []string, bits int) ([]uint64, []int64, error) {
	var (
		unsigned []uint64
		signed   []int64
	)
	for _, a := range args {
		if bits == 32 {
			v, err := strconv.ParseInt(strings.TrimSpace(a), 10, 32)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: id %q", errUsage, a)
			}
			signed = append(signed, v)
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(a), 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: id %q", errUsage, a)
		}
		unsigned = append(unsigned, v)
	}
	return unsigned, signed, nil
}

func promptPasswordChange(prompt promptFunc) (string, string, error) {
	oldPassword, err := prompt("Current password: ")
	if err != nil {
		return "", "", err
	}
	newPassword, err := prompt("New password: ")
	if err != nil {
		return "", "", err
	}
	return oldPassword, newPassword, nil
}

type v1Runner struct {
	c       *v1.Client
	prompt  promptFunc
	timeout time.Duration
}

func (r *v1Runner) login(ctx context.Context, login, password string) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.c.Login(ctx, login, password)
	return err
}

func (r *v1Runner) run(ctx context.Context, cmd string, args []string) (any, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	switch cmd {
	case "info":
		return v1.Call[v1.UserInfoResponse](ctx, r.c, v1.AsUser(v1.GetUserInfo{}))
	case "schedule":
		if err := wantArgs(cmd, args, 2, "YEAR MONTH"); err != nil {
			return nil, err
		}
		y, m, err := parseYearMonth(args)
		if err != nil {
			return nil, err
		}
		return v1.Call[v1.ScheduleResponse](ctx, r.c, v1.AsUser(v1.GetSchedule{Year: y, Month: m}))
	case "workday":
		if err := wantArgs(cmd, args, 4, "YEAR MONTH DAY true|false"); err != nil {
			return nil, err
		}
		y, m, d, working, err := parseWorkday(args)
		if err != nil {
			return nil, err
		}
		return v1.Call[v1.Acknowledged](ctx, r.c, v1.AsUser(v1.SetWorkday{Year: y, Month: m, Day: d, IsWorking: working}))
	case "passwd":
		oldPassword, newPassword, err := promptPasswordChange(r.prompt)
		if err != nil {
			return nil, err
		}
		return v1.Call[v1.PasswordChanged](ctx, r.c, v1.AsUser(v1.ChangePassword{OldPassword: oldPassword, NewPassword: newPassword}))
	case "names":
		_, raw, err := parseIDs(args, 32)
		if err != nil {
			return nil, err
		}
		ids := make([]v1.UserID, len(raw))
		for i, id := range raw {
			ids[i] = v1.UserID(id)
		}
		return v1.Call[v1.UserNamesResponse](ctx, r.c, v1.AsUser(v1.GetUserNames{IDs: ids}))
	case "users":
		return v1.Call[v1.UsersResponse](ctx, r.c, v1.AsAdmin(v1.GetUsers{}))
	case "adduser":
		if err := wantArgs(cmd, args, 2, "LOGIN NAME"); err != nil {
			return nil, err
		}
		return v1.Call[v1.Acknowledged](ctx, r.c, v1.AsAdmin(v1.AddUser{User: v1.User{Login: args[0], Name: args[1], IsWorker: true}}))
	case "reset":
		if err := wantArgs(cmd, args, 1, "ID"); err != nil {
			return nil, err
		}
		_, raw, err := parseIDs(args, 32)
		if err != nil {
			return nil, err
		}
		return v1.Call[v1.PasswordReset](ctx, r.c, v1.AsAdmin(v1.ResetPassword{ID: v1.UserID(raw[0])}))
	case "revenue":
		if err := wantArgs(cmd, args, 2, "YEAR MONTH"); err != nil {
			return nil, err
		}
		y, m, err := parseYearMonth(args)
		if err != nil {
			return nil, err
		}
		return v1.Call[v1.RevenueResponse](ctx, r.c, v1.AsAdmin(v1.GetRevenue{Year: y, Month: m}))
	case "salary":
		if err := wantArgs(cmd, args, 2, "YEAR MONTH"); err != nil {
			return nil, err
		}
		y, m, err := parseYearMonth(args)
		if err != nil {
			return nil, err
		}
		return v1.Call[v1.SalaryCalculationResponse](ctx, r.c, v1.AsAdmin(v1.GetSalaryCalculation{Year: y, Month: m}))
	default:
		return nil, fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

type v2Runner struct {
	c       *v2.Client
	prompt  promptFunc
	timeout time.Duration
}

func (r *v2Runner) login(ctx context.Context, login, password string) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.c.Login(ctx, login, password)
	return err
}

func (r *v2Runner) run(ctx context.Context, cmd string, args []string) (any, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	switch cmd {
	case "info":
		return v2.Call[v2.UserInfoResponse](ctx, r.c, v2.GetUserInfo{})
	case "schedule":
		if err := wantArgs(cmd, args, 2, "YEAR MONTH"); err != nil {
			return nil, err
		}
		y, m, err := parseYearMonth(args)
		if err != nil {
			return nil, err
		}
		return v2.Call[v2.ScheduleResponse](ctx, r.c, v2.GetSchedule{Year: y, Month: m})
	case "workday":
		if err := wantArgs(cmd, args, 4, "YEAR MONTH DAY true|false"); err != nil {
			return nil, err
		}
		y, m, d, working, err := parseWorkday(args)
		if err != nil {
			return nil, err
		}
		return v2.Call[v2.Acknowledged](ctx, r.c, v2.SetWorkday{Year: y, Month: m, Day: d, IsWorking: working})
	case "passwd":
		oldPassword, newPassword, err := promptPasswordChange(r.prompt)
		if err != nil {
			return nil, err
		}
		return v2.Call[v2.PasswordChanged](ctx, r.c, v2.ChangePassword{OldPassword: oldPassword, NewPassword: newPassword})
	case "names":
		raw, _, err := parseIDs(args, 64)
		if err != nil {
			return nil, err
		}
		ids := make([]v2.UserID, len(raw))
		for i, id := range raw {
			ids[i] = v2.UserID(id)
		}
		return v2.Call[v2.UserNamesResponse](ctx, r.c, v2.GetUserNames{IDs: ids})
	case "users":
		return v2.Call[v2.UsersResponse](ctx, r.c, v2.GetUsers{})
	case "adduser":
		if err := wantArgs(cmd, args, 2, "LOGIN NAME"); err != nil {
			return nil, err
		}
		return v2.Call[v2.Acknowledged](ctx, r.c, v2.AddUser{User: v2.User{Login: args[0], Name: args[1], IsWorker: true}})
	case "reset":
		if err := wantArgs(cmd, args, 1, "ID"); err != nil {
			return nil, err
		}
		raw, _, err := parseIDs(args, 64)
		if err != nil {
			return nil, err
		}
		return v2.Call[v2.PasswordReset](ctx, r.c, v2.ResetPassword{ID: v2.UserID(raw[0])})
	case "revenue":
		if err := wantArgs(cmd, args, 2, "YEAR MONTH"); err != nil {
			return nil, err
		}
		y, m, err := parseYearMonth(args)
		if err != nil {
			return nil, err
		}
		return v2.Call[v2.RevenueResponse](ctx, r.c, v2.GetRevenue{Year: y, Month: m})
	case "salary":
		if err := wantArgs(cmd, args, 2, "YEAR MONTH"); err != nil {
			return nil, err
		}
		y, m, err := parseYearMonth(args)
		if err != nil {
			return nil, err
		}
		return v2.Call[v2.SalaryCalculationResponse](ctx, r.c, v2.GetSalaryCalculation{Year: y, Month: m})
	default:
		return nil, fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}
