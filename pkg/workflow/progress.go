package workflow

import (
	"sync"
	"time"
)

// NodeStatus is the lifecycle state of one node within a run.
type NodeStatus string

const (
	StatusPending   NodeStatus = "pending"
	StatusPreparing NodeStatus = "preparing"
	StatusRunning   NodeStatus = "running"
	StatusCompleted NodeStatus = "completed"
	StatusFailed    NodeStatus = "failed"
	StatusSkipped   NodeStatus = "skipped"
)

// maxMilestones bounds the milestone list; only the most recent survive.
const maxMilestones = 5

// Milestone is one checkpoint message with its node and time.
type Milestone struct {
	Time    time.Time `json:"time"`
	Node    string    `json:"node,omitempty"`
	Message string    `json:"message"`
}

// Step is the progress record of one node: its status, when it ran, and how
// many tool dispatches it spent.
type Step struct {
	Status       NodeStatus `json:"status"`
	Start        time.Time  `json:"start,omitempty"`
	End          time.Time  `json:"end,omitempty"`
	ActionsTaken int        `json:"actions_taken"`
}

// Snapshot is an immutable view of run progress, safe to hand to another
// goroutine.
type Snapshot struct {
	Workflow    string          `json:"workflow"`
	CurrentNode string          `json:"current_node,omitempty"`
	Steps       map[string]Step `json:"steps"`
	Milestones  []Milestone     `json:"milestones,omitempty"`
	Actions     int             `json:"actions_taken"`
}

// Progress tracks per-node step records and milestones for one run. Updates
// come from the executor goroutine; snapshots may be read from any goroutine.
type Progress struct {
	mu          sync.Mutex
	workflow    string
	currentNode string
	steps       map[string]*Step
	milestones  []Milestone
	actions     int
	onUpdate    func(Snapshot)
	now         func() time.Time
}

// NewProgress creates a tracker with every node pending. onUpdate, when not
// nil, fires after each status change with a fresh snapshot.
func NewProgress(workflow string, nodes []string, onUpdate func(Snapshot)) *Progress {
	steps := make(map[string]*Step, len(nodes))
	for _, n := range nodes {
		steps[n] = &Step{Status: StatusPending}
	}
	return &Progress{
		workflow: workflow,
		steps:    steps,
		onUpdate: onUpdate,
		now:      time.Now,
	}
}

// SetStatus records a node transition, stamping start on first entry and end
// on the terminal states.
func (p *Progress) SetStatus(node string, status NodeStatus) {
	p.mu.Lock()
	step := p.steps[node]
	if step == nil {
		step = &Step{}
		p.steps[node] = step
	}
	step.Status = status
	switch status {
	case StatusPreparing, StatusRunning:
		if step.Start.IsZero() {
			step.Start = p.now()
		}
		p.currentNode = node
	case StatusCompleted, StatusFailed:
		step.End = p.now()
	}
	snapshot := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snapshot)
}

// AddAction counts one tool dispatch against a node's step record.
func (p *Progress) AddAction(node string) {
	p.mu.Lock()
	if step := p.steps[node]; step != nil {
		step.ActionsTaken++
	}
	p.actions++
	p.mu.Unlock()
}

// MarkRemainingSkipped flags every still-pending node as skipped, for runs
// that end early.
func (p *Progress) MarkRemainingSkipped() {
	p.mu.Lock()
	for _, step := range p.steps {
		if step.Status == StatusPending {
			step.Status = StatusSkipped
		}
	}
	snapshot := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snapshot)
}

func (p *Progress) addMilestone(message string) {
	p.mu.Lock()
	p.milestones = append(p.milestones, Milestone{
		Time:    p.now(),
		Node:    p.currentNode,
		Message: message,
	})
	if len(p.milestones) > maxMilestones {
		p.milestones = p.milestones[len(p.milestones)-maxMilestones:]
	}
	snapshot := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snapshot)
}

// Snapshot returns the current progress view.
func (p *Progress) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Progress) snapshotLocked() Snapshot {
	steps := make(map[string]Step, len(p.steps))
	for k, v := range p.steps {
		steps[k] = *v
	}
	milestones := append([]Milestone(nil), p.milestones...)
	return Snapshot{
		Workflow:    p.workflow,
		CurrentNode: p.currentNode,
		Steps:       steps,
		Milestones:  milestones,
		Actions:     p.actions,
	}
}

func (p *Progress) notify(s Snapshot) {
	if p.onUpdate != nil {
		p.onUpdate(s)
	}
}
