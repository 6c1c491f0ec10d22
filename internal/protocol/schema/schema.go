package schema

import (
	"fmt"

	"github.com/danmuck/shiftctl/internal/protocol"
	"github.com/danmuck/shiftctl/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

// Requirement declares one field of a message or struct and its wire type.
type Requirement struct {
	ID   uint16
	Type uint8
}

// Message is the declared shape of one tagged variant.
type Message struct {
	Name   string
	Fields []Requirement
}

// Table is the closed vocabulary of one schema revision.
type Table struct {
	Name     string
	Messages map[uint32]Message
}

type ValidationError struct {
	Schema      string
	MessageType uint32
	FieldID     uint16
	Reason      string
}

func (e ValidationError) Error() string {
	if e.FieldID == 0 {
		return fmt.Sprintf("schema: %s message_type=%#04x: %s", e.Schema, e.MessageType, e.Reason)
	}
	return fmt.Sprintf("schema: %s message_type=%#04x field=%d: %s", e.Schema, e.MessageType, e.FieldID, e.Reason)
}

// Unwrap lets callers test any schema failure against protocol.ErrMalformed.
func (e ValidationError) Unwrap() error {
	return protocol.ErrMalformed
}

const (
	ReasonUnknownType  = "unknown message_type"
	ReasonMissing      = "missing required field"
	ReasonTypeMismatch = "type mismatch"
	ReasonDuplicate    = "duplicate field"
	ReasonUnknownField = "unknown field"
)

// Lookup returns the declared shape of messageType.
func (t Table) Lookup(messageType uint32) (Message, bool) {
	m, ok := t.Messages[messageType]
	return m, ok
}

// Validate enforces the declared shape of messageType. Fields that are
// missing, duplicated, mistyped or undeclared all reject the message.
func (t Table) Validate(messageType uint32, fields []tlv.Field) error {
	log.Debug().Msgf("schema.Validate schema=%s message_type=%#04x fields=%d", t.Name, messageType, len(fields))
	msg, ok := t.Messages[messageType]
	if !ok {
		log.Error().Msgf("schema.Validate unknown schema=%s message_type=%#04x", t.Name, messageType)
		return ValidationError{Schema: t.Name, MessageType: messageType, Reason: ReasonUnknownType}
	}
	if err := check(t.Name, messageType, msg.Fields, fields); err != nil {
		return err
	}
	log.Trace().Msgf("schema.Validate ok schema=%s message=%s", t.Name, msg.Name)
	return nil
}

// Check applies the message rules to a nested struct. messageType names the
// enclosing message in any error.
func (t Table) Check(messageType uint32, reqs []Requirement, fields []tlv.Field) error {
	return check(t.Name, messageType, reqs, fields)
}

func check(schemaName string, messageType uint32, reqs []Requirement, fields []tlv.Field) error {
	declared := make(map[uint16]uint8, len(reqs))
	for _, req := range reqs {
		declared[req.ID] = req.Type
	}
	seen := make(map[uint16]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.ID]; dup {
			return reject(schemaName, messageType, f.ID, ReasonDuplicate)
		}
		seen[f.ID] = struct{}{}
		want, ok := declared[f.ID]
		if !ok {
			return reject(schemaName, messageType, f.ID, ReasonUnknownField)
		}
		if f.Type != want {
			log.Error().Msgf(
				"schema.Validate type mismatch schema=%s message_type=%#04x field_id=%d got=%s want=%s",
				schemaName,
				messageType,
				f.ID,
				tlv.TypeName(f.Type),
				tlv.TypeName(want),
			)
			return ValidationError{Schema: schemaName, MessageType: messageType, FieldID: f.ID, Reason: ReasonTypeMismatch}
		}
	}
	for _, req := range reqs {
		if _, ok := seen[req.ID]; !ok {
			return reject(schemaName, messageType, req.ID, ReasonMissing)
		}
	}
	return nil
}

func reject(schemaName string, messageType uint32, fieldID uint16, reason string) error {
	log.Error().Msgf(
		"schema.Validate %s schema=%s message_type=%#04x field_id=%d",
		reason,
		schemaName,
		messageType,
		fieldID,
	)
	return ValidationError{Schema: schemaName, MessageType: messageType, FieldID: fieldID, Reason: reason}
}
