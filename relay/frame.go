// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"encoding/json"
	"fmt"
)

// FrameKind discriminates the inbound wire shapes the relay
// recognizes. Anything that is not an RPC request is ignored by the
// session, so two kinds suffice.
type FrameKind int

const (
	// FrameUnknown covers malformed JSON and every shape the relay
	// does not recognize. Such frames are dropped silently.
	FrameUnknown FrameKind = iota

	// FrameRPCRequest is a remote-procedure request.
	FrameRPCRequest
)

// ProcedureRequest is one framed remote-procedure request. The ID is
// kept as raw JSON so whatever value the caller sent (string, number)
// is echoed back verbatim for correlation.
type ProcedureRequest struct {
	ID        json.RawMessage
	Method    string
	Arguments map[string]any
}

// Frame is the decoded form of one inbound wire frame. Request is
// non-nil only when Kind is FrameRPCRequest.
type Frame struct {
	Kind    FrameKind
	Request *ProcedureRequest
}

// rpcEnvelope mirrors the request wire shape:
// {"rpc":{"request":{"id":…,"method":…,"arguments":{…}}}}.
type rpcEnvelope struct {
	RPC *struct {
		Request *struct {
			ID        json.RawMessage `json:"id"`
			Method    *string         `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		} `json:"request"`
	} `json:"rpc"`
}

// DecodeFrame classifies one inbound frame. Decoding happens exactly
// once, here at the boundary; the rest of the relay works with the
// tagged result. A frame only counts as an RPC request when the id,
// method, and arguments fields are all present; anything less is
// unknown. A null arguments value counts as present and dispatches
// with an empty mapping.
func DecodeFrame(data []byte) Frame {
	var envelope rpcEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Frame{Kind: FrameUnknown}
	}
	if envelope.RPC == nil || envelope.RPC.Request == nil {
		return Frame{Kind: FrameUnknown}
	}
	request := envelope.RPC.Request
	if len(request.ID) == 0 || request.Method == nil || len(request.Arguments) == 0 {
		return Frame{Kind: FrameUnknown}
	}

	var arguments map[string]any
	if err := json.Unmarshal(request.Arguments, &arguments); err != nil {
		return Frame{Kind: FrameUnknown}
	}
	if arguments == nil {
		arguments = map[string]any{}
	}
	return Frame{
		Kind: FrameRPCRequest,
		Request: &ProcedureRequest{
			ID:        request.ID,
			Method:    *request.Method,
			Arguments: arguments,
		},
	}
}

// pingFrame is the fixed liveness frame: {"command":"ping"}.
var pingFrame = []byte(`{"command":"ping"}`)

// EncodePing returns the liveness frame.
func EncodePing() []byte {
	return pingFrame
}

// Response wire shapes. Exactly one of result or error appears in a
// response frame; result is emitted even when the handler returned
// nil, so callers can distinguish "succeeded with no value" from a
// frame they cannot interpret.
type rpcResultResponse struct {
	RPC struct {
		Response struct {
			ID     json.RawMessage `json:"id"`
			Result any             `json:"result"`
		} `json:"response"`
	} `json:"rpc"`
}

type rpcErrorResponse struct {
	RPC struct {
		Response struct {
			ID    json.RawMessage `json:"id"`
			Error string          `json:"error"`
		} `json:"response"`
	} `json:"rpc"`
}

// EncodeResult frames a successful procedure response, echoing the
// request's id. Fails if the handler's result is not serializable.
func EncodeResult(id json.RawMessage, result any) ([]byte, error) {
	var response rpcResultResponse
	response.RPC.Response.ID = id
	response.RPC.Response.Result = result
	data, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("encoding rpc result: %w", err)
	}
	return data, nil
}

// EncodeError frames a failed procedure response, echoing the
// request's id.
func EncodeError(id json.RawMessage, message string) ([]byte, error) {
	var response rpcErrorResponse
	response.RPC.Response.ID = id
	response.RPC.Response.Error = message
	data, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("encoding rpc error: %w", err)
	}
	return data, nil
}

// onlineEvent is the membership broadcast wire shape:
// {"event":{"topic":"online","data":{"clients":N}}}.
type onlineEvent struct {
	Event struct {
		Topic string `json:"topic"`
		Data  struct {
			Clients int `json:"clients"`
		} `json:"data"`
	} `json:"event"`
}

// EncodeOnlineEvent frames a membership-count broadcast.
func EncodeOnlineEvent(clients int) []byte {
	var event onlineEvent
	event.Event.Topic = "online"
	event.Event.Data.Clients = clients
	// The shape is fixed and field types are marshalable; an error
	// here is impossible.
	data, _ := json.Marshal(event)
	return data
}
