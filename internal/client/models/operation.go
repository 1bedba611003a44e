package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// OpType tags a queued mutation.
type OpType string

const (
	OpCreateMenu  OpType = "CREATE_MENU"
	OpUpdateMenu  OpType = "UPDATE_MENU"
	OpDeleteMenu  OpType = "DELETE_MENU"
	OpUpsertEntry OpType = "UPSERT_ENTRY"
	OpDeleteEntry OpType = "DELETE_ENTRY"
)

// Operation is one pending mutation. The concrete types below are the only
// implementations.
type Operation interface {
	Type() OpType
	isOperation()
}

// CreateMenuOp creates a menu that currently lives locally under TempID.
type CreateMenuOp struct {
	TempID string         `json:"temp_id"`
	Data   CreateMenuData `json:"data"`
}

type UpdateMenuOp struct {
	MenuID string         `json:"menu_id"`
	Patch  UpdateMenuData `json:"patch"`
}

type DeleteMenuOp struct {
	MenuID string `json:"menu_id"`
}

// UpsertEntryOp carries the local id of the optimistic row so the confirmed
// row can replace it.
type UpsertEntryOp struct {
	LocalID string     `json:"local_id,omitempty"`
	Entry   EntryInput `json:"entry"`
}

type DeleteEntryOp struct {
	Key EntryKey `json:"key"`
}

func (CreateMenuOp) Type() OpType  { return OpCreateMenu }
func (UpdateMenuOp) Type() OpType  { return OpUpdateMenu }
func (DeleteMenuOp) Type() OpType  { return OpDeleteMenu }
func (UpsertEntryOp) Type() OpType { return OpUpsertEntry }
func (DeleteEntryOp) Type() OpType { return OpDeleteEntry }

func (CreateMenuOp) isOperation()  {}
func (UpdateMenuOp) isOperation()  {}
func (DeleteMenuOp) isOperation()  {}
func (UpsertEntryOp) isOperation() {}
func (DeleteEntryOp) isOperation() {}

// EncodeOperation serializes the payload of op. The type tag is stored
// separately.
func EncodeOperation(op Operation) ([]byte, error) {
	return json.Marshal(op)
}

// DecodeOperation is the inverse of EncodeOperation.
func DecodeOperation(t OpType, payload []byte) (Operation, error) {
	var (
		op  Operation
		err error
	)
	switch t {
	case OpCreateMenu:
		var v CreateMenuOp
		err = json.Unmarshal(payload, &v)
		op = v
	case OpUpdateMenu:
		var v UpdateMenuOp
		err = json.Unmarshal(payload, &v)
		op = v
	case OpDeleteMenu:
		var v DeleteMenuOp
		err = json.Unmarshal(payload, &v)
		op = v
	case OpUpsertEntry:
		var v UpsertEntryOp
		err = json.Unmarshal(payload, &v)
		op = v
	case OpDeleteEntry:
		var v DeleteEntryOp
		err = json.Unmarshal(payload, &v)
		op = v
	default:
		return nil, fmt.Errorf("unknown operation type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return op, nil
}

// MenuIDOf returns the menu an operation refers to.
func MenuIDOf(op Operation) string {
	switch v := op.(type) {
	case CreateMenuOp:
		return v.TempID
	case UpdateMenuOp:
		return v.MenuID
	case DeleteMenuOp:
		return v.MenuID
	case UpsertEntryOp:
		return v.Entry.MenuID
	case DeleteEntryOp:
		return v.Key.MenuID
	}
	return ""
}

// RemapMenuID rewrites references to menu id from into to. The second
// result is false when op does not reference from.
func RemapMenuID(op Operation, from, to string) (Operation, bool) {
	switch v := op.(type) {
	case UpdateMenuOp:
		if v.MenuID == from {
			v.MenuID = to
			return v, true
		}
	case DeleteMenuOp:
		if v.MenuID == from {
			v.MenuID = to
			return v, true
		}
	case UpsertEntryOp:
		if v.Entry.MenuID == from {
			v.Entry.MenuID = to
			return v, true
		}
	case DeleteEntryOp:
		if v.Key.MenuID == from {
			v.Key.MenuID = to
			return v, true
		}
	}
	return op, false
}

// QueueItem is a decoded sync queue row.
type QueueItem struct {
	ID         string
	Op         Operation
	Timestamp  time.Time
	RetryCount int
}
