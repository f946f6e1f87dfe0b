package server

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/focal-dev/focal/internal/engine"
	"github.com/focal-dev/focal/internal/store"
)

// Maintainer runs the periodic jobs around the ranking core: a re-rank tick
// so the surface tracks the moving clock even without user events, and a
// daily rolling-window decay pass over every item's histograms.
type Maintainer struct {
	db         *store.DB
	cron       *cron.Cron
	maxVisible int
}

// NewMaintainer wires the two jobs onto a cron scheduler. Specs come from
// config ("@every 1m", "@daily").
func NewMaintainer(db *store.DB, maxVisible int, rerankSpec, decaySpec string) (*Maintainer, error) {
	m := &Maintainer{
		db:         db,
		cron:       cron.New(),
		maxVisible: maxVisible,
	}

	if _, err := m.cron.AddFunc(rerankSpec, m.rerank); err != nil {
		return nil, fmt.Errorf("schedule rerank %q: %w", rerankSpec, err)
	}
	if _, err := m.cron.AddFunc(decaySpec, m.decay); err != nil {
		return nil, fmt.Errorf("schedule decay %q: %w", decaySpec, err)
	}
	return m, nil
}

// Start runs one decay pass immediately, then hands off to the scheduler.
func (m *Maintainer) Start() {
	m.decay()
	m.cron.Start()
}

// Stop halts the scheduler without waiting for running jobs.
func (m *Maintainer) Stop() {
	m.cron.Stop()
}

func (m *Maintainer) rerank() {
	items, err := m.db.ListItems()
	if err != nil {
		log.Printf("rerank error: %v", err)
		return
	}

	res := engine.Rank(items, engine.NewContext(time.Now().UTC(), "", ""), m.maxVisible)
	if len(res.Visible) > 0 {
		log.Printf("rerank: %d items, top %q (%.2f)",
			len(res.All), res.Visible[0].Title, res.Visible[0].Computed.Score)
	}
}

func (m *Maintainer) decay() {
	if updated, err := m.db.DecayAllItems(time.Now().UTC()); err != nil {
		log.Printf("decay error: %v", err)
	} else if updated > 0 {
		log.Printf("decay: updated %d items", updated)
	}
}
