package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	idPrefix     = "perf_pr_"
	suffixLength = 5
	suffixChars  = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Request is the body of a pull-request creation call.
type Request struct {
	PullRequestID   string `json:"pull_request_id"`
	PullRequestName string `json:"pull_request_name"`
	AuthorID        string `json:"author_id"`
}

// IDGenerator returns a pull_request_id for a call made at now.
type IDGenerator func(now time.Time) string

// TimestampIDs generates perf_pr_<unix millis>_<5 random [0-9a-z]>. Two calls
// in the same millisecond collide with probability 36^-5.
func TimestampIDs(rng *Rand) IDGenerator {
	return func(now time.Time) string {
		var sb strings.Builder
		sb.Grow(len(idPrefix) + 14 + suffixLength)
		sb.WriteString(idPrefix)
		fmt.Fprintf(&sb, "%d_", now.UnixMilli())
		for i := 0; i < suffixLength; i++ {
			sb.WriteByte(suffixChars[rng.Intn(len(suffixChars))])
		}
		return sb.String()
	}
}

// UUIDIDs generates perf_pr_<random uuid>.
func UUIDIDs() IDGenerator {
	return func(time.Time) string {
		return idPrefix + uuid.NewString()
	}
}

// NewRequest builds the request an actor sends at now.
func NewRequest(author Actor, now time.Time, ids IDGenerator) Request {
	return Request{
		PullRequestID:   ids(now),
		PullRequestName: fmt.Sprintf("Performance Test PR %d", now.UnixMilli()),
		AuthorID:        author.UserID,
	}
}
