package response

import "orderlifecycle/domain/shared"

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Response is the envelope of every JSON reply.
//
//	success: { success: true, data: {...}, message: "...", code: 200, request_id: "..." }
//	failure: { success: false, error: "ERROR_CODE", message: "...", details: [...], code: 4xx/5xx, request_id: "..." }
type Response struct {
	Success   bool                `json:"success"`
	Data      interface{}         `json:"data,omitempty"`
	Error     string              `json:"error,omitempty"` // error code, never the internal error text
	Details   []shared.FieldError `json:"details,omitempty"`
	Code      int                 `json:"code"`
	Message   string              `json:"message"`
	RequestID string              `json:"request_id,omitempty"`
}
