package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

var (
	// ErrUnknownAction is returned for frames whose action tag is not one of
	// CREATE, UPDATE or DELETE.
	ErrUnknownAction = errors.New("unknown action")
	// ErrMalformedAction is returned for frames that cannot be decoded.
	ErrMalformedAction = errors.New("malformed action")
)

var validate = validator.New()

// Action is an inbound client action. The set of implementations is closed:
// CreateAction, UpdateAction and DeleteAction.
type Action interface {
	isAction()
}

type CreateAction struct {
	Content string `validate:"required,max=4096"`
}

type UpdateAction struct {
	MessageID uint   `validate:"required"`
	Content   string `validate:"required,max=4096"`
}

type DeleteAction struct {
	MessageID uint `validate:"required"`
}

func (CreateAction) isAction() {}
func (UpdateAction) isAction() {}
func (DeleteAction) isAction() {}

// actionFrame is the JSON shape sent by clients. For DELETE the target id
// travels in "content".
type actionFrame struct {
	Action    string          `json:"action" validate:"required"`
	Content   json.RawMessage `json:"content"`
	MessageID json.RawMessage `json:"message_id"`
}

// ParseAction decodes and validates one inbound frame.
func ParseAction(data []byte) (Action, error) {
	var frame actionFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	if err := validate.Struct(frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}

	var (
		action Action
		err    error
	)
	switch frame.Action {
	case ActionCreate:
		var a CreateAction
		a.Content, err = decodeText(frame.Content)
		action = a
	case ActionUpdate:
		var a UpdateAction
		if a.MessageID, err = decodeID(frame.MessageID); err == nil {
			a.Content, err = decodeText(frame.Content)
		}
		action = a
	case ActionDelete:
		var a DeleteAction
		a.MessageID, err = decodeID(frame.Content)
		if err != nil && len(frame.MessageID) > 0 {
			a.MessageID, err = decodeID(frame.MessageID)
		}
		action = a
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, frame.Action)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedAction, frame.Action, err)
	}
	if err := validate.Struct(action); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedAction, frame.Action, err)
	}
	return action, nil
}

func decodeText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.New("content must be a string")
	}
	return s, nil
}

// decodeID accepts both 42 and "42".
func decodeID(raw json.RawMessage) (uint, error) {
	if len(raw) == 0 {
		return 0, errors.New("message id is missing")
	}
	var n uint
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, errors.New("message id must be a number")
	}
	v, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, errors.New("message id must be a number")
	}
	return uint(v), nil
}
