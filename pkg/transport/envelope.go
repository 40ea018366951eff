// Package transport binds a command dispatcher to a COMMS request/reply subject
// and provides the matching client.
package transport

import (
	"encoding/json"

	"github.com/morezero/tpp-host/pkg/dispatcher"
)

// Response statuses on the wire.
const (
	StatusSuccess        = "success"
	StatusError          = "error"
	StatusNotImplemented = "notImplemented"
)

// Transport-originated failure codes.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeVersionMismatch = "VERSION_MISMATCH"
	CodeInvalidResult   = "INVALID_RESULT"
)

// ChannelRequest is the JSON envelope for incoming channel invocations.
type ChannelRequest struct {
	ID     string             `json:"id"`
	Method string             `json:"method"`
	Args   json.RawMessage    `json:"args,omitempty"`
	Ctx    *InvocationContext `json:"ctx,omitempty"`
}

// ChannelResponse is the JSON envelope for channel replies.
type ChannelResponse struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Result interface{}  `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable"`
}

// InvocationContext holds context from the caller.
type InvocationContext struct {
	RequestID     string `json:"requestId,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	// Version is a semver range the channel version must satisfy (e.g. "^1.0.0" or "1").
	Version    string `json:"version,omitempty"`
	DeadlineMs int    `json:"deadlineMs,omitempty"`
	TimeoutMs  int    `json:"timeoutMs,omitempty"`
}

// OutcomeResponse converts a dispatcher outcome into its wire response.
func OutcomeResponse(id string, out dispatcher.Outcome) *ChannelResponse {
	switch out.Kind {
	case dispatcher.KindSuccess:
		return &ChannelResponse{ID: id, Status: StatusSuccess, Result: out.Value}
	case dispatcher.KindUnsupported:
		return &ChannelResponse{ID: id, Status: StatusNotImplemented}
	case dispatcher.KindFailure:
		if out.Failure != nil {
			return &ChannelResponse{
				ID:     id,
				Status: StatusError,
				Error: &ErrorDetail{
					Code:      out.Failure.Code,
					Message:   out.Failure.Message,
					Details:   out.Failure.Details,
					Retryable: out.Failure.Code == dispatcher.CodeInternalError,
				},
			}
		}
	}
	return errorResponse(id, dispatcher.CodeInternalError, "invalid outcome", true)
}

// ResponseOutcome converts a wire response back into a dispatcher outcome.
func ResponseOutcome(resp *ChannelResponse) dispatcher.Outcome {
	switch resp.Status {
	case StatusSuccess:
		return dispatcher.Success(resp.Result)
	case StatusNotImplemented:
		return dispatcher.Unsupported()
	case StatusError:
		if resp.Error != nil {
			return dispatcher.Failure(resp.Error.Code, resp.Error.Message, resp.Error.Details)
		}
	}
	return dispatcher.Failure(CodeInvalidRequest, "malformed response status: "+resp.Status, nil)
}

func errorResponse(id, code, message string, retryable bool) *ChannelResponse {
	return &ChannelResponse{
		ID:     id,
		Status: StatusError,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}
