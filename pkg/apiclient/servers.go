package apiclient

// NiFiServer is one configured NiFi instance, as listed by the bridge.
type NiFiServer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListNiFiServers returns the configured NiFi servers.
func (c *Client) ListNiFiServers() ([]NiFiServer, error) {
	var resp struct {
		Servers []NiFiServer `json:"servers"`
	}
	if err := c.get("/config/nifi-servers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Servers, nil
}

// Health checks the bridge liveness endpoint.
func (c *Client) Health() error {
	return c.get("/health", nil, nil)
}
