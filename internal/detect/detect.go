// Package detect answers whether a branch carries local work that an
// automatic update could disturb.
package detect

import (
	"context"

	"github.com/sqve/avalanche/internal/logger"
	"github.com/sqve/avalanche/internal/models"
)

// Answer is tri-state: a tracking status that cannot be read is Unsure,
// never No.
type Answer int

const (
	No Answer = iota
	Yes
	Unsure
)

func (a Answer) String() string {
	switch a {
	case No:
		return "no"
	case Yes:
		return "yes"
	default:
		return "unsure"
	}
}

// ChangeSource reports working-tree and tracking facts for a repository.
type ChangeSource interface {
	PendingChanges(ctx context.Context, root string) (int, error)
	Tracking(ctx context.Context, root, branch string) (models.TrackingStatus, error)
}

type Detector struct {
	source ChangeSource
}

func New(source ChangeSource) *Detector {
	return &Detector{source: source}
}

// HasLocalChanges returns No for a clean working tree. With pending changes
// it returns Yes when branch is ahead of its upstream, No when it is not,
// and Unsure when either question cannot be answered.
func (d *Detector) HasLocalChanges(ctx context.Context, root, branch string) Answer {
	log := logger.WithComponent("detect")

	pending, err := d.source.PendingChanges(ctx, root)
	if err != nil {
		log.Debug("pending changes unreadable", "path", root, "error", err)
		return Unsure
	}
	if pending == 0 {
		return No
	}

	status, err := d.source.Tracking(ctx, root, branch)
	if err != nil {
		log.Debug("tracking status unreadable", "path", root, "branch", branch, "error", err)
		return Unsure
	}
	if status.Ahead > 0 {
		return Yes
	}
	return No
}
