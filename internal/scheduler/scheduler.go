// Package scheduler periodically re-trains agents from their recorded URL
// sources so web-derived knowledge does not go stale. The store is
// append-only, so each refresh adds the page's current content alongside
// what was learned before.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/mohamedaaris/agentx/internal/agents"
)

// refreshConcurrency bounds how many pages are fetched at once.
const refreshConcurrency = 4

// refreshTimeout bounds one full refresh sweep.
const refreshTimeout = 10 * time.Minute

// URLTrainer re-trains one namespace from one URL.
type URLTrainer interface {
	RefreshURL(ctx context.Context, agentID, url string) error
}

// Scheduler drives periodic source refresh through a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	agents  *agents.Manager
	trainer URLTrainer
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a scheduler over the given agent records and trainer.
func New(mgr *agents.Manager, trainer URLTrainer) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		agents:  mgr,
		trainer: trainer,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start registers the refresh job with the given cron spec (e.g. "@daily"
// or "0 3 * * *") and starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RefreshAll); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[Scheduler] Source refresh scheduled: %s", spec)
	return nil
}

// Stop halts the cron loop and cancels any in-flight refresh.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// RefreshAll re-trains every agent URL source, fanning out with bounded
// concurrency. Failures are logged per source and do not stop the sweep.
func (s *Scheduler) RefreshAll() {
	ctx, cancel := context.WithTimeout(s.ctx, refreshTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)

	var total int
	for _, agent := range s.agents.List() {
		agentID := agent.ID
		seen := make(map[string]bool)
		for _, src := range agent.Sources {
			if src.Type != "url" || seen[src.Ref] {
				continue
			}
			seen[src.Ref] = true
			total++

			url := src.Ref
			g.Go(func() error {
				if err := s.trainer.RefreshURL(ctx, agentID, url); err != nil {
					log.Printf("[Scheduler] Refresh failed for agent %s source %s: %v", agentID, url, err)
				}
				// Errors are per-source; never abort the group.
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		log.Printf("[Scheduler] Refresh sweep aborted: %v", err)
		return
	}
	if total > 0 {
		log.Printf("[Scheduler] Refreshed %d URL sources", total)
	}
}
