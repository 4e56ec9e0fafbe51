package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RequestError is returned when the service answers with a non-success
// status. Detail carries the service's own explanation when the body has a
// detail field, else the transport's status text.
type RequestError struct {
	StatusCode int
	Detail     string
}

func (e *RequestError) Error() string {
	return e.Detail
}

// errorDetailBody is the optional JSON body attached to non-success
// responses.
type errorDetailBody struct {
	Detail string `json:"detail"`
}

// errorFromResponse converts a non-2xx response into a RequestError,
// extracting the detail field when the body carries one.
func errorFromResponse(resp *http.Response) error {
	detail := ""
	if body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)); err == nil {
		var parsed errorDetailBody
		if json.Unmarshal(body, &parsed) == nil {
			detail = parsed.Detail
		}
	}
	if detail == "" {
		detail = resp.Status
	}
	if detail == "" {
		detail = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return &RequestError{StatusCode: resp.StatusCode, Detail: detail}
}
