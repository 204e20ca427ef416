package dto

import "encoding/json"

// Envelope wraps every structured response of the files API.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorBody      `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

type BatchDeleteRequest struct {
	IDs []string `json:"ids"`
}

type ExtractTextResponse struct {
	Text string `json:"text"`
}
