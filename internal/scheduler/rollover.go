package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// midnightSpec fires at 00:00:00 every day (seconds field enabled).
const midnightSpec = "0 0 0 * * *"

// Rollover runs a job at every local midnight: habit "today" flips and daily
// schedules come due at that instant.
type Rollover struct {
	cron *cron.Cron
	loc  *time.Location
}

func NewRollover(loc *time.Location) *Rollover {
	if loc == nil {
		loc = time.Local
	}
	return &Rollover{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		loc:  loc,
	}
}

// OnMidnight registers job; it receives the firing time in the rollover's location.
func (r *Rollover) OnMidnight(job func(now time.Time)) error {
	_, err := r.cron.AddFunc(midnightSpec, func() { job(time.Now().In(r.loc)) })
	return err
}

// Next reports when the next registered job fires.
func (r *Rollover) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(time.Now().In(r.loc))
}

func (r *Rollover) Start() {
	r.cron.Start()
}

func (r *Rollover) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
