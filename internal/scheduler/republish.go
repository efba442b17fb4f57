package scheduler

import (
	"context"
	"time"

	"github.com/berfenger/tdsflow/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

const REPUBLISH_JOB_KEY = "republish_card_view"

// RepublishJob asks the target actor to publish the card view again, so a
// broker that lost the retained message gets it back.
type RepublishJob struct {
	root   *actor.RootContext
	target *actor.PID
	logger *zap.Logger
}

func NewRepublishJob(root *actor.RootContext, target *actor.PID, logger *zap.Logger) *RepublishJob {
	return &RepublishJob{
		root:   root,
		target: target,
		logger: logger,
	}
}

func (j *RepublishJob) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.logger.Debug("scheduler: republish card view")
	j.root.Send(j.target, domain.RepublishRequest{})
	return nil
}

func (j *RepublishJob) Description() string {
	return "republish card view"
}

// StartRepublish starts a scheduler that runs the republish job every
// interval. A zero interval disables it and returns a nil scheduler.
func StartRepublish(ctx context.Context, interval time.Duration, root *actor.RootContext, target *actor.PID,
	logger *zap.Logger) (quartz.Scheduler, error) {
	if interval <= 0 {
		return nil, nil
	}
	sched := quartz.NewStdScheduler()
	job := quartz.NewJobDetail(NewRepublishJob(root, target, logger), quartz.NewJobKey(REPUBLISH_JOB_KEY))
	if err := sched.ScheduleJob(job, quartz.NewSimpleTrigger(interval)); err != nil {
		return nil, err
	}
	sched.Start(ctx)
	return sched, nil
}

// ensure interface compliance
var _ quartz.Job = (*RepublishJob)(nil)
