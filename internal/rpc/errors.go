package rpc

import "fmt"

// RequestError is the structured transport error of §4.A/§7:
// {url, method, status, statusText, bodyText}.
type RequestError struct {
	URL        string
	Method     string
	Status     int
	StatusText string
	BodyText   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("rpc %s %s: %d %s: %s", e.Method, e.URL, e.Status, e.StatusText, e.BodyText)
}

// IsNotFound reports whether err is a 404 RequestError — the distinguished
// signal from getTransactionByHash that callers must be able to test for
// without treating it as fatal (§4.A).
func IsNotFound(err error) bool {
	re, ok := err.(*RequestError)
	if !ok {
		return false
	}
	return re.Status == 404
}
