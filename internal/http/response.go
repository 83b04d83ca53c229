package http

import (
	"encoding/json"
	"net/http"
	"time"
)

// TimingInfo breaks a call down into phases. Phases that did not happen,
// such as connecting on a reused connection, are zero.
type TimingInfo struct {
	StartTime           time.Time
	ConnectTime         time.Duration
	TLSHandshakeTime    time.Duration
	TimeToFirstByte     time.Duration
	ContentTransferTime time.Duration
	TotalTime           time.Duration
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Timing     TimingInfo
}

// BodyString returns the body as a string.
func (r *Response) BodyString() string {
	return string(r.Body)
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// IsSuccess returns true if the response status code is in the 2xx range
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsExpected reports whether the status is in [200, 400), the range a load
// runtime does not count as a failed request.
func (r *Response) IsExpected() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}
