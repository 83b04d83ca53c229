// Package fixture provisions the team whose members author pull requests
// during a run.
package fixture

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	prhttp "github.com/andro-kes/prload/internal/http"
	"github.com/andro-kes/prload/internal/scenario"
)

// AddTeamPath is the team creation endpoint.
const AddTeamPath = "/team/add/"

// DefaultSettleDelay is slept after provisioning so the service can settle
// before load starts.
const DefaultSettleDelay = 2 * time.Second

// Team is the body of a team creation call.
type Team struct {
	TeamName string           `json:"team_name"`
	Members  []scenario.Actor `json:"members"`
}

// Roster returns the team members as a scenario roster.
func (t Team) Roster() scenario.Roster {
	return scenario.Roster(t.Members)
}

// Status is the result of provisioning.
type Status int

const (
	StatusFailed Status = iota
	StatusCreated
	StatusAlreadyExists
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusAlreadyExists:
		return "already_exists"
	default:
		return "failed"
	}
}

// Ready reports whether the team can be assumed to exist.
func (s Status) Ready() bool {
	return s == StatusCreated || s == StatusAlreadyExists
}

// Provisioner creates the team once before load begins.
type Provisioner struct {
	client      *prhttp.Client
	settleDelay time.Duration
	logger      *zap.Logger
}

// NewProvisioner creates a provisioner. A negative settleDelay is treated as 0.
func NewProvisioner(client *prhttp.Client, settleDelay time.Duration, logger *zap.Logger) *Provisioner {
	if settleDelay < 0 {
		settleDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{
		client:      client,
		settleDelay: settleDelay,
		logger:      logger,
	}
}

// Provision issues one team creation call, then sleeps the settle delay.
// 201 means created and 400 means the team already exists; anything else is
// logged as a warning. It never fails the run.
func (p *Provisioner) Provision(ctx context.Context, team Team) Status {
	status := p.create(ctx, team)

	if p.settleDelay > 0 {
		timer := time.NewTimer(p.settleDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	return status
}

func (p *Provisioner) create(ctx context.Context, team Team) Status {
	resp, err := p.client.PostJSON(ctx, AddTeamPath, team)
	if err != nil {
		p.logger.Warn("failed to create test team",
			zap.String("team", team.TeamName),
			zap.Error(err),
		)
		return StatusFailed
	}

	p.logger.Info("team creation finished", zap.String("team", team.TeamName), zap.Int("status", resp.StatusCode))

	switch resp.StatusCode {
	case http.StatusCreated:
		p.logger.Info("test team created", zap.Int("members", len(team.Members)))
		return StatusCreated
	case http.StatusBadRequest:
		p.logger.Info("test team already exists")
		return StatusAlreadyExists
	default:
		p.logger.Warn("failed to create test team",
			zap.String("team", team.TeamName),
			zap.Int("status", resp.StatusCode),
			zap.String("body", resp.BodyString()),
		)
		return StatusFailed
	}
}
