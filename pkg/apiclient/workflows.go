package apiclient

import (
	"encoding/json"
	"time"
)

// Workflow is one entry of the workflow catalog.
type Workflow struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Start       string   `json:"start"`
	Nodes       []string `json:"nodes"`
}

// WorkflowMilestone is one recorded milestone of a run.
type WorkflowMilestone struct {
	Time    time.Time `json:"time"`
	Node    string    `json:"node"`
	Message string    `json:"message"`
}

// WorkflowStep is the per-node progress record of a run.
type WorkflowStep struct {
	Status       string    `json:"status"`
	Start        time.Time `json:"start,omitempty"`
	End          time.Time `json:"end,omitempty"`
	ActionsTaken int       `json:"actions_taken"`
}

// WorkflowOutcome is the terminal result of a workflow run.
type WorkflowOutcome struct {
	Workflow     string                  `json:"workflow"`
	Success      bool                    `json:"success"`
	Error        string                  `json:"error,omitempty"`
	ErrorType    string                  `json:"error_type,omitempty"`
	FinalNode    string                  `json:"final_node,omitempty"`
	ActionsTaken int                     `json:"actions_taken"`
	Steps        map[string]WorkflowStep `json:"steps,omitempty"`
	Milestones   []WorkflowMilestone     `json:"milestones,omitempty"`
	State        json.RawMessage         `json:"state,omitempty"`
}

// ListWorkflows returns the registered workflow definitions.
func (c *Client) ListWorkflows() ([]Workflow, error) {
	var resp struct {
		Workflows []Workflow `json:"workflows"`
	}
	if err := c.get("/workflows", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Workflows, nil
}

// GetWorkflow returns one workflow definition.
func (c *Client) GetWorkflow(name string) (*Workflow, error) {
	var wf Workflow
	if err := c.get("/workflows/"+name, nil, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// ValidateWorkflow checks a registered definition for structural errors.
func (c *Client) ValidateWorkflow(name string) (bool, string, error) {
	var resp struct {
		Valid bool   `json:"valid"`
		Error string `json:"error,omitempty"`
	}
	if err := c.get("/workflows/validate/"+name, nil, &resp); err != nil {
		return false, "", err
	}
	return resp.Valid, resp.Error, nil
}

// ExecuteWorkflow runs a workflow to completion and returns its outcome.
func (c *Client) ExecuteWorkflow(name string, inputs map[string]any) (*WorkflowOutcome, error) {
	body := map[string]any{"workflow": name, "inputs": inputs}
	var outcome WorkflowOutcome
	if err := c.post("/workflows/execute", body, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}
