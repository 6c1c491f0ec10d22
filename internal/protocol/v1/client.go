package v1

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/danmuck/shiftctl/internal/protocol/frame"
)

var ErrUnexpectedResponse = errors.New("v1: unexpected response variant")

// RoundTripper carries one request frame to the server and returns its
// answer. Implementations assign the message id.
type RoundTripper interface {
	RoundTrip(ctx context.Context, f frame.Frame) (frame.Frame, error)
}

// Client issues typed v1 requests and remembers the session token.
type Client struct {
	rt RoundTripper

	mu    sync.RWMutex
	token string
}

func NewClient(rt RoundTripper) *Client {
	return &Client{rt: rt}
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Do sends req with the stored token. Protocol failures come back inside the
// Response; the error return is for transport and decode failures.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	out, err := EncodeRequestFrame(0, c.Token(), req)
	if err != nil {
		return Response{}, err
	}
	in, err := c.rt.RoundTrip(ctx, out)
	if err != nil {
		return Response{}, err
	}
	resp, err := DecodeResponseFrame(in)
	if err != nil {
		return Response{}, err
	}
	if resp.Data != nil {
		op, _ := OperationFor(req.MessageType())
		if resp.Data.MessageType() != op.Response {
			return Response{}, fmt.Errorf("%w: %T for %s", ErrUnexpectedResponse, resp.Data, op.Name)
		}
	}
	return resp, nil
}

// Login authenticates and stores the returned token for later calls.
func (c *Client) Login(ctx context.Context, login, password string) (LoginResponse, error) {
	out, err := Call[LoginResponse](ctx, c, AsUser(Login{Login: login, Password: password}))
	if err != nil {
		return LoginResponse{}, err
	}
	c.SetToken(out.Token)
	return out, nil
}

// Call sends req and unpacks the success variant T. A *ProtocolError is
// returned as the error.
func Call[T ResponseData](ctx context.Context, c *Client, req Request) (T, error) {
	var zero T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return zero, err
	}
	data, err := resp.Result()
	if err != nil {
		return zero, err
	}
	out, ok := data.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T", ErrUnexpectedResponse, data)
	}
	return out, nil
}
