package errors

import "net/http"

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // User-facing message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer = 1000
	ErrInvalidParams  = 1001
	ErrNotFound       = 1002

	// Search errors (2000-2999)
	ErrQueryRequired          = 2000
	ErrSearchAPI              = 2001
	ErrSearchUnexpectedFormat = 2002
	ErrModelOutputMalformed   = 2003
	ErrSearchFailed           = 2004

	// Idea errors (3000-3999)
	ErrUserInputRequired = 3000
	ErrIdeaSaveFailed    = 3001
	ErrIdeaListFailed    = 3002

	// Globe errors (4000-4999)
	ErrGlobeDataFailed   = 4000
	ErrGlobeRenderParams = 4001
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer: {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:  {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:       {ErrNotFound, http.StatusNotFound, "Resource not found"},

	// Search errors
	ErrQueryRequired:          {ErrQueryRequired, http.StatusBadRequest, "Query parameter is required"},
	ErrSearchAPI:              {ErrSearchAPI, http.StatusInternalServerError, "Error communicating with search API"},
	ErrSearchUnexpectedFormat: {ErrSearchUnexpectedFormat, http.StatusInternalServerError, "Unexpected response format from search API"},
	ErrModelOutputMalformed:   {ErrModelOutputMalformed, http.StatusInternalServerError, "Malformed response from language model"},
	ErrSearchFailed:           {ErrSearchFailed, http.StatusInternalServerError, "An error occurred while processing your request"},

	// Idea errors
	ErrUserInputRequired: {ErrUserInputRequired, http.StatusBadRequest, "User input is required"},
	ErrIdeaSaveFailed:    {ErrIdeaSaveFailed, http.StatusInternalServerError, "An error occurred while processing the request"},
	ErrIdeaListFailed:    {ErrIdeaListFailed, http.StatusInternalServerError, "An error occurred while fetching top ideas"},

	// Globe errors
	ErrGlobeDataFailed:   {ErrGlobeDataFailed, http.StatusInternalServerError, "Failed to generate globe data"},
	ErrGlobeRenderParams: {ErrGlobeRenderParams, http.StatusBadRequest, "Invalid globe render parameters"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsServerError checks if the code represents a server error (5xx)
func IsServerError(code int) bool {
	return GetHTTPStatus(code) >= 500
}

