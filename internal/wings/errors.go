package wings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RequestError is an unsuccessful response from the daemon.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("wings error (status %d): %s", e.StatusCode, e.Message)
}

// errorBody covers both error shapes the daemon emits.
type errorBody struct {
	Error  string `json:"error"`
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// parseErrorResponse builds a *RequestError from resp and closes its body.
func parseErrorResponse(resp *http.Response) error {
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	msg := ""
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		msg = body.Error
		if msg == "" && len(body.Errors) > 0 {
			msg = body.Errors[0].Detail
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &RequestError{StatusCode: resp.StatusCode, Message: msg}
}

// IsNotFound reports whether err is a daemon 404.
func IsNotFound(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound
}

// IsAlreadyExists reports whether err means the target already exists.
func IsAlreadyExists(err error) bool {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	if reqErr.StatusCode == http.StatusConflict {
		return true
	}
	return strings.Contains(strings.ToLower(reqErr.Message), "already exists")
}

// Message returns the daemon's own error text, or err's text otherwise.
func Message(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return err.Error()
}
