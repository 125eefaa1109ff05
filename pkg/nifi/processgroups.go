package nifi

import (
	"context"
	"encoding/json"
	"fmt"
)

type processGroupsResponse struct {
	ProcessGroups []ProcessGroupEntity `json:"processGroups"`
}

type processGroupFlowResponse struct {
	ProcessGroupFlow *ProcessGroupFlow `json:"processGroupFlow"`
}

// GetRootGroupID resolves the id of the root process group.
func (c *Client) GetRootGroupID(ctx context.Context) (string, error) {
	flow, err := c.GetProcessGroupFlow(ctx, "root")
	if err != nil {
		return "", err
	}
	return flow.ID, nil
}

// GetProcessGroupFlow returns the flow tree of a group: its processors,
// connections, ports and child groups in one payload.
func (c *Client) GetProcessGroupFlow(ctx context.Context, groupID string) (*ProcessGroupFlow, error) {
	var resp processGroupFlowResponse
	if err := c.get(ctx, fmt.Sprintf("/flow/process-groups/%s", groupID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.ProcessGroupFlow == nil {
		return nil, &Error{Kind: KindTransport, Message: "flow response missing processGroupFlow"}
	}
	tagPortKinds(resp.ProcessGroupFlow)
	return resp.ProcessGroupFlow, nil
}

// tagPortKinds stamps the port variant onto entities that arrived inside a
// flow tree, where the input/output distinction is positional.
func tagPortKinds(flow *ProcessGroupFlow) {
	for i := range flow.Flow.InputPorts {
		flow.Flow.InputPorts[i].Kind = PortInput
	}
	for i := range flow.Flow.OutputPorts {
		flow.Flow.OutputPorts[i].Kind = PortOutput
	}
}

// GetProcessGroupStatus returns the status snapshot of a group, including
// aggregate queue counters.
func (c *Client) GetProcessGroupStatus(ctx context.Context, groupID string) (json.RawMessage, error) {
	var resp struct {
		ProcessGroupStatus json.RawMessage `json:"processGroupStatus"`
	}
	if err := c.get(ctx, fmt.Sprintf("/flow/process-groups/%s/status", groupID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.ProcessGroupStatus, nil
}

// ListProcessGroups returns the direct child groups of a parent group.
func (c *Client) ListProcessGroups(ctx context.Context, parentID string) ([]ProcessGroupEntity, error) {
	var resp processGroupsResponse
	if err := c.get(ctx, fmt.Sprintf("/process-groups/%s/process-groups", parentID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.ProcessGroups, nil
}

// GetProcessGroup returns one process group with its current revision.
func (c *Client) GetProcessGroup(ctx context.Context, id string) (*ProcessGroupEntity, error) {
	var entity ProcessGroupEntity
	if err := c.get(ctx, fmt.Sprintf("/process-groups/%s", id), nil, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// CreateProcessGroup creates a child group under parentID at the given
// canvas position.
func (c *Client) CreateProcessGroup(ctx context.Context, parentID, name string, position Position) (*ProcessGroupEntity, error) {
	payload := ProcessGroupEntity{
		Revision: c.newRevision(),
		Component: &ProcessGroupComponent{
			Name:     name,
			Position: &position,
		},
	}
	var created ProcessGroupEntity
	if err := c.post(ctx, fmt.Sprintf("/process-groups/%s/process-groups", parentID), payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProcessGroup applies mutate to a freshly fetched component and PUTs
// it back with the fetched revision.
func (c *Client) UpdateProcessGroup(ctx context.Context, id string, mutate func(*ProcessGroupComponent)) (*ProcessGroupEntity, error) {
	current, err := c.GetProcessGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Component == nil {
		current.Component = &ProcessGroupComponent{ID: id}
	}
	mutate(current.Component)
	current.Component.ID = id

	payload := ProcessGroupEntity{
		ID:        id,
		Revision:  current.Revision,
		Component: current.Component,
	}
	var updated ProcessGroupEntity
	if err := c.put(ctx, fmt.Sprintf("/process-groups/%s", id), payload, &updated); err != nil {
		return nil, conflictWithVersion(err, current.Revision)
	}
	return &updated, nil
}

// DeleteProcessGroup deletes a group. Deleting an already-absent group
// returns nil: the desired state is reached either way. NiFi rejects
// deleting a non-empty or running group with a 409, which surfaces as
// KindConflict.
func (c *Client) DeleteProcessGroup(ctx context.Context, id string) error {
	current, err := c.GetProcessGroup(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	err = c.deleteWithRevision(ctx, fmt.Sprintf("/process-groups/%s", id), current.Revision, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}
