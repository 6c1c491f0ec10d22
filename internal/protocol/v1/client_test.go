package v1

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danmuck/shiftctl/internal/protocol/frame"
	"github.com/danmuck/shiftctl/internal/testutil/testlog"
)

type loopback struct {
	d *Dispatcher
}

func (l loopback) RoundTrip(ctx context.Context, f frame.Frame) (frame.Frame, error) {
	return l.d.ServeFrame(ctx, f)
}

func TestClientLoginStoresToken(t *testing.T) {
	testlog.Start(t)
	c := NewClient(loopback{d: NewDispatcher(&stubBackend{})})

	_, err := Call[UserInfoResponse](context.Background(), c, AsUser(GetUserInfo{}))
	require.ErrorIs(t, err, ErrUnknownToken)

	out, err := c.Login(context.Background(), "admin", "admin")
	require.NoError(t, err)
	require.Equal(t, admin.ID, out.ID)
	require.Equal(t, "admin", c.Token())

	info, err := Call[UserInfoResponse](context.Background(), c, AsUser(GetUserInfo{}))
	require.NoError(t, err)
	require.Equal(t, admin, info.User)
}

func TestClientLoginFailure(t *testing.T) {
	testlog.Start(t)
	c := NewClient(loopback{d: NewDispatcher(&stubBackend{})})
	_, err := c.Login(context.Background(), "alice", "nope")
	require.ErrorIs(t, err, ErrLoginFailed)
	require.Empty(t, c.Token())
}

func TestCallRejectsWrongVariant(t *testing.T) {
	testlog.Start(t)
	c := NewClient(loopback{d: NewDispatcher(&stubBackend{})})
	c.SetToken("admin")
	_, err := Call[UsersResponse](context.Background(), c, AsUser(GetUserInfo{}))
	require.ErrorIs(t, err, ErrUnexpectedResponse)
}
