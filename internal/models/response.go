package models

// uniform error responses
type ErrorResponse struct {
	Code     string                  `json:"code"`
	Message  string                  `json:"message"`
	Boundary string                  `json:"boundary,omitempty"`
	Details  []ValidationErrorDetail `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// single field validation error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}
