package v1

import (
	"github.com/danmuck/shiftctl/internal/protocol"
	"github.com/danmuck/shiftctl/internal/protocol/frame"
	"github.com/danmuck/shiftctl/internal/protocol/tlv"
)

// EncodeRequestFrame packs req with the session token in the auth block.
// token may be empty for Login.
func EncodeRequestFrame(messageID uint64, token string, req Request) (frame.Frame, error) {
	mt, fields, err := EncodeRequest(req)
	if err != nil {
		return frame.Frame{}, err
	}
	return frame.Frame{
		Header: frame.Header{
			MessageID:   messageID,
			MessageType: mt,
		},
		Auth:    []byte(token),
		Payload: tlv.EncodeFields(fields),
	}, nil
}

// DecodeRequestFrame returns the request and the token it was sent with.
func DecodeRequestFrame(f frame.Frame) (Request, string, error) {
	mt := f.Header.MessageType
	if f.Header.IsResponse() {
		return nil, "", protocol.Malformed(SchemaName, mt, "response flag on request frame", nil)
	}
	fields, err := tlv.DecodeFields(f.Payload)
	if err != nil {
		return nil, "", protocol.Malformed(SchemaName, mt, "payload", err)
	}
	req, err := DecodeRequest(mt, fields)
	if err != nil {
		return nil, "", err
	}
	return req, string(f.Auth), nil
}

// EncodeResponseFrame answers messageID. Error responses carry FlagIsError.
func EncodeResponseFrame(messageID uint64, resp Response) (frame.Frame, error) {
	mt, fields, err := EncodeResponse(resp)
	if err != nil {
		return frame.Frame{}, err
	}
	flags := frame.FlagIsResponse
	if resp.Err != nil {
		flags |= frame.FlagIsError
	}
	return frame.Frame{
		Header: frame.Header{
			MessageID:   messageID,
			MessageType: mt,
			Flags:       flags,
		},
		Payload: tlv.EncodeFields(fields),
	}, nil
}

func DecodeResponseFrame(f frame.Frame) (Response, error) {
	mt := f.Header.MessageType
	if !f.Header.IsResponse() {
		return Response{}, protocol.Malformed(SchemaName, mt, "request frame where response expected", nil)
	}
	fields, err := tlv.DecodeFields(f.Payload)
	if err != nil {
		return Response{}, protocol.Malformed(SchemaName, mt, "payload", err)
	}
	return DecodeResponse(mt, f.Header.IsError(), fields)
}
