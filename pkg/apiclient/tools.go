package apiclient

import (
	"encoding/json"
	"net/url"
)

// ToolDescription is the parsed multi-section description of a tool.
type ToolDescription struct {
	Short   string `json:"short"`
	Long    string `json:"long,omitempty"`
	Returns string `json:"returns,omitempty"`
	Example string `json:"example,omitempty"`
}

// Tool is one entry of the tool catalog.
type Tool struct {
	Name        string          `json:"name"`
	Phases      []string        `json:"phases"`
	Description ToolDescription `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ListTools returns the tool catalog, optionally filtered to one phase tag.
func (c *Client) ListTools(phase string) ([]Tool, error) {
	query := url.Values{}
	if phase != "" {
		query.Set("phase", phase)
	}
	var resp struct {
		Tools []Tool `json:"tools"`
	}
	if err := c.get("/tools", query, &resp); err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

// CallTool dispatches one tool with the given arguments and returns the raw
// shaped result.
func (c *Client) CallTool(name string, arguments map[string]any) (json.RawMessage, error) {
	body := map[string]any{"arguments": arguments}
	var resp struct {
		Result json.RawMessage `json:"result"`
	}
	if err := c.post("/tools/"+name, body, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}
