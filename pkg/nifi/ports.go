package nifi

import (
	"context"
	"fmt"
	"strings"
)

type inputPortsResponse struct {
	InputPorts []PortEntity `json:"inputPorts"`
}

type outputPortsResponse struct {
	OutputPorts []PortEntity `json:"outputPorts"`
}

// portPath returns the REST resource family for a port kind.
func portPath(kind PortKind) string {
	if kind == PortOutput {
		return "output-ports"
	}
	return "input-ports"
}

// ListInputPorts returns the input ports directly inside a group.
func (c *Client) ListInputPorts(ctx context.Context, groupID string) ([]PortEntity, error) {
	var resp inputPortsResponse
	if err := c.get(ctx, fmt.Sprintf("/process-groups/%s/input-ports", groupID), nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.InputPorts {
		resp.InputPorts[i].Kind = PortInput
	}
	return resp.InputPorts, nil
}

// ListOutputPorts returns the output ports directly inside a group.
func (c *Client) ListOutputPorts(ctx context.Context, groupID string) ([]PortEntity, error) {
	var resp outputPortsResponse
	if err := c.get(ctx, fmt.Sprintf("/process-groups/%s/output-ports", groupID), nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.OutputPorts {
		resp.OutputPorts[i].Kind = PortOutput
	}
	return resp.OutputPorts, nil
}

// GetPort resolves a port of unknown variant: the input-port endpoint is
// tried first, and on 404 the output-port endpoint. The discovered Kind on
// the returned entity determines which endpoints later mutations must use.
func (c *Client) GetPort(ctx context.Context, id string) (*PortEntity, error) {
	var entity PortEntity
	err := c.get(ctx, fmt.Sprintf("/input-ports/%s", id), nil, &entity)
	if err == nil {
		entity.Kind = PortInput
		return &entity, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	if err := c.get(ctx, fmt.Sprintf("/output-ports/%s", id), nil, &entity); err != nil {
		return nil, err
	}
	entity.Kind = PortOutput
	return &entity, nil
}

// CreatePortRequest describes a port to create.
type CreatePortRequest struct {
	GroupID  string
	Kind     PortKind
	Name     string
	Position Position
	Comments string
}

// CreatePort creates an input or output port inside a group.
func (c *Client) CreatePort(ctx context.Context, req CreatePortRequest) (*PortEntity, error) {
	payload := PortEntity{
		Revision: c.newRevision(),
		Component: &PortComponent{
			Name:     req.Name,
			Position: &req.Position,
			Comments: req.Comments,
		},
	}
	var created PortEntity
	if err := c.post(ctx, fmt.Sprintf("/process-groups/%s/%s", req.GroupID, portPath(req.Kind)), payload, &created); err != nil {
		return nil, err
	}
	created.Kind = req.Kind
	return &created, nil
}

// UpdatePortRunState transitions a port to RUNNING, STOPPED or DISABLED.
// The port variant is resolved first when unknown.
func (c *Client) UpdatePortRunState(ctx context.Context, id, state string) (*PortEntity, error) {
	current, err := c.GetPort(ctx, id)
	if err != nil {
		return nil, err
	}
	payload := runStatusPayload{Revision: current.Revision, State: state}
	var updated PortEntity
	if err := c.put(ctx, fmt.Sprintf("/%s/%s/run-status", portPath(current.Kind), id), payload, &updated); err != nil {
		return nil, conflictWithVersion(err, current.Revision)
	}
	updated.Kind = current.Kind
	return &updated, nil
}

// DeletePort deletes a port of either variant. An already-absent port is
// treated as success.
func (c *Client) DeletePort(ctx context.Context, id string) error {
	current, err := c.GetPort(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	if current.Component != nil && strings.EqualFold(current.Component.State, "RUNNING") {
		return fmt.Errorf("port %s is running; stop it before deleting", id)
	}
	err = c.deleteWithRevision(ctx, fmt.Sprintf("/%s/%s", portPath(current.Kind), id), current.Revision, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}
