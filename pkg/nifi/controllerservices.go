package nifi

import (
	"context"
	"fmt"
)

type controllerServicesResponse struct {
	ControllerServices []ControllerServiceEntity `json:"controllerServices"`
}

// ListControllerServices returns the controller services of a group.
func (c *Client) ListControllerServices(ctx context.Context, groupID string) ([]ControllerServiceEntity, error) {
	var resp controllerServicesResponse
	if err := c.get(ctx, fmt.Sprintf("/flow/process-groups/%s/controller-services", groupID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.ControllerServices, nil
}

// GetControllerService returns one controller service with its revision.
func (c *Client) GetControllerService(ctx context.Context, id string) (*ControllerServiceEntity, error) {
	var entity ControllerServiceEntity
	if err := c.get(ctx, fmt.Sprintf("/controller-services/%s", id), nil, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// CreateControllerServiceRequest describes a controller service to create.
type CreateControllerServiceRequest struct {
	GroupID    string
	Type       string
	Name       string
	Properties map[string]*string
	Comments   string
}

// CreateControllerService creates a controller service inside a group.
func (c *Client) CreateControllerService(ctx context.Context, req CreateControllerServiceRequest) (*ControllerServiceEntity, error) {
	payload := ControllerServiceEntity{
		Revision: c.newRevision(),
		Component: &ControllerServiceComponent{
			Type:       req.Type,
			Name:       req.Name,
			Properties: req.Properties,
			Comments:   req.Comments,
		},
	}
	var created ControllerServiceEntity
	if err := c.post(ctx, fmt.Sprintf("/process-groups/%s/controller-services", req.GroupID), payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateControllerServiceProperties fetches the service for its revision and
// PUTs the new properties back with that exact revision.
func (c *Client) UpdateControllerServiceProperties(ctx context.Context, id string, properties map[string]*string) (*ControllerServiceEntity, error) {
	current, err := c.GetControllerService(ctx, id)
	if err != nil {
		return nil, err
	}
	payload := ControllerServiceEntity{
		ID:       id,
		Revision: current.Revision,
		Component: &ControllerServiceComponent{
			ID:         id,
			Properties: properties,
		},
	}
	var updated ControllerServiceEntity
	if err := c.put(ctx, fmt.Sprintf("/controller-services/%s", id), payload, &updated); err != nil {
		return nil, conflictWithVersion(err, current.Revision)
	}
	return &updated, nil
}

// controllerServiceRunStatus is the body of the controller service
// run-status endpoint, which takes ENABLED/DISABLED rather than a run state.
type controllerServiceRunStatus struct {
	Revision *Revision `json:"revision"`
	State    string    `json:"state"`
}

// UpdateControllerServiceRunState enables or disables a controller service.
// state must be ENABLED or DISABLED.
func (c *Client) UpdateControllerServiceRunState(ctx context.Context, id, state string) (*ControllerServiceEntity, error) {
	current, err := c.GetControllerService(ctx, id)
	if err != nil {
		return nil, err
	}
	payload := controllerServiceRunStatus{Revision: current.Revision, State: state}
	var updated ControllerServiceEntity
	if err := c.put(ctx, fmt.Sprintf("/controller-services/%s/run-status", id), payload, &updated); err != nil {
		return nil, conflictWithVersion(err, current.Revision)
	}
	return &updated, nil
}

// DeleteControllerService deletes a controller service. An already-absent
// service is treated as success.
func (c *Client) DeleteControllerService(ctx context.Context, id string) error {
	current, err := c.GetControllerService(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	err = c.deleteWithRevision(ctx, fmt.Sprintf("/controller-services/%s", id), current.Revision, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}
