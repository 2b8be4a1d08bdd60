package sdk

import (
	"encoding/json"
	"net/http"

	"github.com/ethanbaker/api/pkg/api_types"
	"github.com/ethanbaker/civicchat/pkg/civic"
)

// ApiResponse represents a standard API response structure
type ApiResponse[T any] struct {
	Status  api_types.StatusType `json:"status"`          // Status message
	Code    int                  `json:"code"`            // Status code
	Message string               `json:"message"`         // Human-readable message
	Data    T                    `json:"data,omitempty"`  // Optional data field for successful responses
	Error   any                  `json:"error,omitempty"` // Optional errors field for error responses
}

// AsGinResponse converts the ApiResponse to a format suitable for Gin framework
func (r ApiResponse[T]) AsGinResponse() (int, any) {
	return r.Code, r
}

// AsJSON converts the ApiResponse to a format suitable for JSON responses
func (r ApiResponse[T]) AsJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func NewSuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  api_types.StatusSuccess,
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	}
}

// NewFailResponse describes a request the client got wrong, such as an unknown id
func NewFailResponse(code int, message string) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  api_types.StatusFail,
		Code:    code,
		Message: message,
	}
}

func NewErrorResponse(code int, message string, err any) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  api_types.StatusError,
		Code:    code,
		Message: message,
		Error:   err,
	}
}

/** Chat */

// ChatRequest is the body of POST /api/chat. Language is accepted as an alias of Lang
type ChatRequest struct {
	Message  string `json:"message"`
	Lang     string `json:"lang,omitempty"`
	Language string `json:"language,omitempty"`
	ChatID   string `json:"chatId,omitempty"`
}

// LanguageCode returns the requested language, preferring Lang over Language
func (r ChatRequest) LanguageCode() string {
	if r.Lang != "" {
		return r.Lang
	}
	return r.Language
}

// ChatResponse is the body of every /api/chat answer, including failures
type ChatResponse struct {
	Reply   string         `json:"reply"`
	Sources []civic.Source `json:"sources,omitempty"`
	ChatID  string         `json:"chatId,omitempty"`
}

/** Health */

// EnvVars reports which upstream credentials are configured
type EnvVars struct {
	OpenAI     bool `json:"OPENAI"`
	Search     bool `json:"SEARCH"`
	Translator bool `json:"TRANSLATOR"`
}

type HealthResponse struct {
	Status    string  `json:"status"`
	GoVersion string  `json:"goVersion"`
	EnvVars   EnvVars `json:"envVars"`
}

/** Sessions */

// Session is a conversation as exposed by the gateway
type Session struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Transcript []civic.Turn `json:"transcript"`
	Pending    bool         `json:"pending,omitempty"`
}

type SessionList struct {
	Sessions []Session `json:"sessions"`
	ActiveID string    `json:"activeId"`
}

type RenameSessionRequest struct {
	Title string `json:"title"`
}

// SessionMatch is a transcript turn containing a search query
type SessionMatch struct {
	SessionID string        `json:"sessionId"`
	Title     string        `json:"title"`
	Index     int           `json:"index"`
	Speaker   civic.Speaker `json:"speaker"`
	Text      string        `json:"text"`
}
