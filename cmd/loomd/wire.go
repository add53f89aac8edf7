package main

import (
	"encoding/json"
	"fmt"

	"github.com/coreseekdev/loom/pkg/buffer"
)

// opEnvelope is Operation's wire shape: a tagged union encoded as JSON,
// a Kind field plus a payload, except here the payload is typed per kind
// instead of left as json.RawMessage, since loomd only ever ships the
// three concrete Operation kinds pkg/buffer defines.
type opEnvelope struct {
	Kind   string                            `json:"kind"`
	Edit   *buffer.EditOperation             `json:"edit,omitempty"`
	Undo   *buffer.UndoOperation             `json:"undo,omitempty"`
	Select *buffer.UpdateSelectionsOperation `json:"select,omitempty"`
}

func encodeOp(op buffer.Operation) (opEnvelope, error) {
	switch t := op.(type) {
	case buffer.EditOperation:
		return opEnvelope{Kind: "edit", Edit: &t}, nil
	case buffer.UndoOperation:
		return opEnvelope{Kind: "undo", Undo: &t}, nil
	case buffer.UpdateSelectionsOperation:
		return opEnvelope{Kind: "select", Select: &t}, nil
	default:
		return opEnvelope{}, fmt.Errorf("loomd: unknown operation type %T", op)
	}
}

func (e opEnvelope) decode() (buffer.Operation, error) {
	switch e.Kind {
	case "edit":
		if e.Edit == nil {
			return nil, fmt.Errorf("loomd: edit envelope missing payload")
		}
		return *e.Edit, nil
	case "undo":
		if e.Undo == nil {
			return nil, fmt.Errorf("loomd: undo envelope missing payload")
		}
		return *e.Undo, nil
	case "select":
		if e.Select == nil {
			return nil, fmt.Errorf("loomd: select envelope missing payload")
		}
		return *e.Select, nil
	default:
		return nil, fmt.Errorf("loomd: unknown envelope kind %q", e.Kind)
	}
}

func marshalOps(ops []buffer.Operation) ([]byte, error) {
	envs := make([]opEnvelope, len(ops))
	for i, op := range ops {
		env, err := encodeOp(op)
		if err != nil {
			return nil, err
		}
		envs[i] = env
	}
	return json.Marshal(envs)
}

func unmarshalOps(data []byte) ([]buffer.Operation, error) {
	var envs []opEnvelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return nil, err
	}
	ops := make([]buffer.Operation, len(envs))
	for i, env := range envs {
		op, err := env.decode()
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}
