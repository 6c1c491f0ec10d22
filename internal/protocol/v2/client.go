package v2

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/danmuck/shiftctl/internal/protocol/frame"
)

var ErrUnexpectedResponse = errors.New("v2: unexpected response variant")

// RoundTripper carries one request frame and returns the answer frame.
type RoundTripper interface {
	RoundTrip(ctx context.Context, f frame.Frame) (frame.Frame, error)
}

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
	defer c.mu.Unlock()
	c.token = token
}

// Do sends req with the stored token. The error return covers transport and
// decoding; protocol failures are in Response.Err.
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
	if op, _ := OperationFor(req.MessageType()); resp.Data != nil && resp.Data.MessageType() != op.Response {
		return Response{}, fmt.Errorf("%w: %T for %s", ErrUnexpectedResponse, resp.Data, op.Name)
	}
	return resp, nil
}

// Login stores the issued token. v2 does not return the caller's id; use
// GetUserInfo for it.
func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	out, err := Call[LoginResponse](ctx, c, Login{Login: login, Password: password})
	if err != nil {
		return "", err
	}
	c.SetToken(out.Token)
	return out.Token, nil
}

// Call sends req and unpacks the success variant T.
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
