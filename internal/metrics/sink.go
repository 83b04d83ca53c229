package metrics

import "time"

// Sink receives the per-iteration outcome of the pull-request scenario.
// Implementations must be safe for concurrent use by any number of VUs.
type Sink interface {
	AddDuration(d time.Duration)
	AddSuccess(ok bool)
	AddCreated()
	AddError()
}

// Recorder receives the built-in per-request metrics a load runtime keeps.
// *Registry implements it.
type Recorder interface {
	RecordHTTP(d time.Duration, failed bool)
	RecordIteration(d time.Duration)
	Check(name string, ok bool)
}

type registrySink struct {
	duration *Trend
	success  *Rate
	created  *Counter
	errors   *Counter
}

// NewSink binds the scenario metrics of reg: create_pr_duration,
// pr_creation_success_rate, total_prs_created and errors.
func NewSink(reg *Registry) Sink {
	return &registrySink{
		duration: reg.Trend(CreatePRDuration),
		success:  reg.Rate(PRCreationSuccessRate),
		created:  reg.Counter(TotalPRsCreated),
		errors:   reg.Counter(Errors),
	}
}

func (s *registrySink) AddDuration(d time.Duration) { s.duration.Add(d) }
func (s *registrySink) AddSuccess(ok bool)          { s.success.Add(ok) }
func (s *registrySink) AddCreated()                 { s.created.Add(1) }
func (s *registrySink) AddError()                   { s.errors.Add(1) }

var (
	_ Sink     = (*registrySink)(nil)
	_ Recorder = (*Registry)(nil)
)
