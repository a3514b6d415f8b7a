package models

// Greeting is the JSON body returned by GET /hello.
type Greeting struct {
	Message string `json:"message"`
}

// ErrorBody is the standard error envelope for HTTP error responses.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}
