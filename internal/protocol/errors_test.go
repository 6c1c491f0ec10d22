package protocol

import (
	"errors"
	"testing"
)

func TestMalformedUnwrapsSentinelAndCause(t *testing.T) {
	cause := errors.New("short value")
	err := Malformed("v2", 0x1003, "bad month", cause)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain, got %v", err)
	}
	var me *MalformedError
	if !errors.As(err, &me) || me.Schema != "v2" || me.MessageType != 0x1003 {
		t.Fatalf("unexpected malformed error: %+v", me)
	}
}

func TestMalformedWithoutCause(t *testing.T) {
	err := Malformed("v1", 0x0101, "unknown tag", nil)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestTierString(t *testing.T) {
	if TierUser.String() != "user" || TierAdmin.String() != "admin" || Tier(0).String() != "unknown" {
		t.Fatalf("unexpected tier labels")
	}
}
