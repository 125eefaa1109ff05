package nifi

import (
	"context"
	"fmt"
	"strings"
)

type processorsResponse struct {
	Processors []ProcessorEntity `json:"processors"`
}

// ListProcessors returns the processors directly inside a group.
func (c *Client) ListProcessors(ctx context.Context, groupID string) ([]ProcessorEntity, error) {
	var resp processorsResponse
	if err := c.get(ctx, fmt.Sprintf("/process-groups/%s/processors", groupID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Processors, nil
}

// GetProcessor returns one processor with its current revision.
func (c *Client) GetProcessor(ctx context.Context, id string) (*ProcessorEntity, error) {
	var entity ProcessorEntity
	if err := c.get(ctx, fmt.Sprintf("/processors/%s", id), nil, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// CreateProcessorRequest describes a processor to create.
type CreateProcessorRequest struct {
	GroupID    string
	Type       string
	Name       string
	Position   Position
	Properties map[string]*string
}

// CreateProcessor creates a processor inside a group.
func (c *Client) CreateProcessor(ctx context.Context, req CreateProcessorRequest) (*ProcessorEntity, error) {
	component := &ProcessorComponent{
		Type:     req.Type,
		Name:     req.Name,
		Position: &req.Position,
	}
	if len(req.Properties) > 0 {
		component.Config = &ProcessorConfig{Properties: req.Properties}
	}
	payload := ProcessorEntity{
		Revision:  c.newRevision(),
		Component: component,
	}
	var created ProcessorEntity
	if err := c.post(ctx, fmt.Sprintf("/process-groups/%s/processors", req.GroupID), payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ProcessorConfigUpdate describes a configuration change. Nil fields are left
// untouched; property values mapped to nil are removed by NiFi.
type ProcessorConfigUpdate struct {
	Name                        *string
	Properties                  map[string]*string
	AutoTerminatedRelationships []string
	SchedulingPeriod            *string
	SchedulingStrategy          *string
	Comments                    *string
}

// UpdateProcessorConfig fetches the processor for its current revision and
// PUTs the requested configuration change back with that exact revision.
// A 409 surfaces as KindConflict carrying the stale version.
func (c *Client) UpdateProcessorConfig(ctx context.Context, id string, update ProcessorConfigUpdate) (*ProcessorEntity, error) {
	current, err := c.GetProcessor(ctx, id)
	if err != nil {
		return nil, err
	}

	component := &ProcessorComponent{ID: id}
	config := &ProcessorConfig{}
	changed := false

	if update.Name != nil {
		component.Name = *update.Name
		changed = true
	}
	if update.Properties != nil {
		config.Properties = update.Properties
		component.Config = config
		changed = true
	}
	if update.AutoTerminatedRelationships != nil {
		config.AutoTerminatedRelationships = update.AutoTerminatedRelationships
		component.Config = config
		changed = true
	}
	if update.SchedulingPeriod != nil {
		config.SchedulingPeriod = *update.SchedulingPeriod
		component.Config = config
		changed = true
	}
	if update.SchedulingStrategy != nil {
		config.SchedulingStrategy = *update.SchedulingStrategy
		component.Config = config
		changed = true
	}
	if update.Comments != nil {
		config.Comments = *update.Comments
		component.Config = config
		changed = true
	}
	if !changed {
		return current, nil
	}

	payload := ProcessorEntity{
		ID:        id,
		Revision:  current.Revision,
		Component: component,
	}
	var updated ProcessorEntity
	if err := c.put(ctx, fmt.Sprintf("/processors/%s", id), payload, &updated); err != nil {
		return nil, conflictWithVersion(err, current.Revision)
	}
	return &updated, nil
}

// runStatusPayload is the body of the run-status endpoints shared by
// processors and ports.
type runStatusPayload struct {
	Revision *Revision `json:"revision"`
	State    string    `json:"state"`
}

// UpdateProcessorRunState transitions a processor to RUNNING, STOPPED or
// DISABLED via its run-status endpoint.
func (c *Client) UpdateProcessorRunState(ctx context.Context, id, state string) (*ProcessorEntity, error) {
	current, err := c.GetProcessor(ctx, id)
	if err != nil {
		return nil, err
	}
	payload := runStatusPayload{Revision: current.Revision, State: state}
	var updated ProcessorEntity
	if err := c.put(ctx, fmt.Sprintf("/processors/%s/run-status", id), payload, &updated); err != nil {
		return nil, conflictWithVersion(err, current.Revision)
	}
	return &updated, nil
}

// DeleteProcessor deletes a processor. Deleting an already-absent processor
// returns nil: the desired state is reached either way. A running processor
// is refused without touching NiFi's delete endpoint.
func (c *Client) DeleteProcessor(ctx context.Context, id string) error {
	current, err := c.GetProcessor(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	if current.Component != nil && strings.EqualFold(current.Component.State, "RUNNING") {
		return fmt.Errorf("processor %s is running; stop it before deleting", id)
	}
	err = c.deleteWithRevision(ctx, fmt.Sprintf("/processors/%s", id), current.Revision, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}
