package scenario

import (
	"net/http"
	"time"
)

// Outcome classifies a pull-request creation response.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeCreated
	OutcomeAlreadyExists
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeAlreadyExists:
		return "already_exists"
	default:
		return "failed"
	}
}

// Classify maps a status code to an outcome. Status 0 stands for a call that
// produced no response.
func Classify(status int) Outcome {
	switch status {
	case http.StatusCreated:
		return OutcomeCreated
	case http.StatusConflict:
		return OutcomeAlreadyExists
	default:
		return OutcomeFailed
	}
}

// Result is everything known about one iteration.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Body       string
	Err        error

	Actor   Actor
	Request Request

	// HTTPDuration is the client-side duration of the call.
	HTTPDuration time.Duration

	// Elapsed is measured by the driver around the whole iteration.
	Elapsed time.Duration
}

// Success is true only for a created pull request.
func (r Result) Success() bool {
	return r.Outcome == OutcomeCreated
}

// RequestFailed reports whether the call counts toward http_req_failed: no
// response, or a status outside [200, 400).
func (r Result) RequestFailed() bool {
	return r.Err != nil || r.StatusCode < 200 || r.StatusCode >= 400
}
