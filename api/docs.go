package api

import (
	"context"

	"github.com/google/uuid"
)

// DocsBuild describes the documentation build the trigger started. Hosts
// that answer with an empty body leave every field blank.
type DocsBuild struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
	Queued bool   `json:"queued,omitempty"`
}

// NotifyDocsBuild fires the documentation host's rebuild trigger. The POST
// carries no body. A unique request ID header lets the host deduplicate
// deliveries that were retried on our side.
func (c *Client) NotifyDocsBuild(ctx context.Context) (*DocsBuild, *Response, error) {
	req, err := c.newRequest(ctx, "POST", nil,
		Header{Name: "X-Gantry-Request-Id", Value: uuid.New().String()},
	)
	if err != nil {
		return nil, nil, err
	}

	build := new(DocsBuild)
	resp, err := c.doRequest(req, build)
	if err != nil {
		return nil, resp, err
	}

	return build, resp, err
}
