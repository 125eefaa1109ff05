package nifi

import (
	"context"
	"fmt"
)

type connectionsResponse struct {
	Connections []ConnectionEntity `json:"connections"`
}

// ListConnections returns the connections directly inside a group.
func (c *Client) ListConnections(ctx context.Context, groupID string) ([]ConnectionEntity, error) {
	var resp connectionsResponse
	if err := c.get(ctx, fmt.Sprintf("/process-groups/%s/connections", groupID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Connections, nil
}

// GetConnection returns one connection with its current revision.
func (c *Client) GetConnection(ctx context.Context, id string) (*ConnectionEntity, error) {
	var entity ConnectionEntity
	if err := c.get(ctx, fmt.Sprintf("/connections/%s", id), nil, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// CreateConnectionRequest describes a connection between two connectables
// inside one parent group.
type CreateConnectionRequest struct {
	GroupID       string
	Name          string
	Source        ConnectableRef
	Destination   ConnectableRef
	Relationships []string
}

// CreateConnection creates a connection inside a group.
func (c *Client) CreateConnection(ctx context.Context, req CreateConnectionRequest) (*ConnectionEntity, error) {
	payload := ConnectionEntity{
		Revision: c.newRevision(),
		Component: &ConnectionComponent{
			Name:                  req.Name,
			Source:                &req.Source,
			Destination:           &req.Destination,
			SelectedRelationships: req.Relationships,
		},
	}
	var created ConnectionEntity
	if err := c.post(ctx, fmt.Sprintf("/process-groups/%s/connections", req.GroupID), payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ConnectionUpdate describes a connection change. Nil fields are untouched.
type ConnectionUpdate struct {
	Name          *string
	Relationships []string
	BackPressureObjectThreshold   *int64
	BackPressureDataSizeThreshold *string
	FlowFileExpiration            *string
}

// UpdateConnection fetches the connection for its revision, applies the
// update and PUTs it back. NiFi requires source and destination to be echoed
// on update, so the fetched refs are carried through.
func (c *Client) UpdateConnection(ctx context.Context, id string, update ConnectionUpdate) (*ConnectionEntity, error) {
	current, err := c.GetConnection(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Component == nil {
		return nil, &Error{Kind: KindTransport, Message: "connection entity missing component", EntityID: id}
	}

	component := &ConnectionComponent{
		ID:          id,
		Source:      current.Component.Source,
		Destination: current.Component.Destination,
	}
	if update.Name != nil {
		component.Name = *update.Name
	}
	if update.Relationships != nil {
		component.SelectedRelationships = update.Relationships
	}
	if update.BackPressureObjectThreshold != nil {
		component.BackPressureObjectThreshold = *update.BackPressureObjectThreshold
	}
	if update.BackPressureDataSizeThreshold != nil {
		component.BackPressureDataSizeThreshold = *update.BackPressureDataSizeThreshold
	}
	if update.FlowFileExpiration != nil {
		component.FlowFileExpiration = *update.FlowFileExpiration
	}

	payload := ConnectionEntity{
		ID:        id,
		Revision:  current.Revision,
		Component: component,
	}
	var updated ConnectionEntity
	if err := c.put(ctx, fmt.Sprintf("/connections/%s", id), payload, &updated); err != nil {
		return nil, conflictWithVersion(err, current.Revision)
	}
	return &updated, nil
}

// DeleteConnection deletes a connection. NiFi rejects deleting a connection
// holding queued FlowFiles with a 409. An already-absent connection is
// treated as success.
func (c *Client) DeleteConnection(ctx context.Context, id string) error {
	current, err := c.GetConnection(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	err = c.deleteWithRevision(ctx, fmt.Sprintf("/connections/%s", id), current.Revision, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}
