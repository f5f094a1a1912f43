package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/joelanford/ngsi-client-go/api"
)

// Save creates or updates the entity id with the encodable fields of data.
func (c *Client) Save(ctx context.Context, id string, data map[string]any) error {
	if id == "" {
		return ErrMissingID
	}
	c.init()

	_, err := c.Request(ctx, &Request{
		Method: http.MethodPost,
		Path:   c.entityPath(id),
		Data:   api.UpdateRequest{Attributes: c.codec().ToAttributes(data)},
	})
	return err
}

// Delete removes the entity id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	c.init()

	raw, err := c.Request(ctx, &Request{
		Method: http.MethodDelete,
		Path:   c.entityPath(id),
	})
	if err != nil {
		return err
	}

	var status api.StatusCode
	if err := decodeBody(raw, &status); err != nil {
		return err
	}
	if status.Code != api.CodeOK {
		c.Log.V(1).Info("delete failed", "id", id, "code", status.Code, "details", status.Details)
		return newBrokerError(status)
	}
	return nil
}

// Get returns the entity id.
func (c *Client) Get(ctx context.Context, id string) (*api.Entity, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	c.init()

	raw, err := c.Request(ctx, &Request{Path: c.entityPath(id)})
	if err != nil {
		return nil, err
	}

	var resp api.ContextElementResponse
	if err := decodeBody(raw, &resp); err != nil {
		return nil, err
	}
	if resp.StatusCode.Code != api.CodeOK {
		c.Log.V(1).Info("invalid element", "id", resp.ContextElement.ID, "code", resp.StatusCode.Code, "details", resp.StatusCode.Details)
		return nil, newBrokerError(resp.StatusCode)
	}
	return c.project(resp.ContextElement)
}

// Fetch returns every entity of the configured type, in the order the broker
// lists them. A type without entities yields an empty slice. Entities the
// broker reports with a failed status are skipped.
func (c *Client) Fetch(ctx context.Context) ([]api.Entity, error) {
	c.init()

	raw, err := c.Request(ctx, &Request{Path: c.collectionPath()})
	if err != nil {
		return nil, err
	}

	var resp api.ContextResponses
	if err := decodeBody(raw, &resp); err != nil {
		return nil, err
	}
	if resp.ErrorCode != nil {
		if resp.ErrorCode.Code == api.CodeNotFound {
			return []api.Entity{}, nil
		}
		return nil, newBrokerError(*resp.ErrorCode)
	}

	entities := make([]api.Entity, 0, len(resp.ContextResponses))
	for _, r := range resp.ContextResponses {
		if r.StatusCode.Code != api.CodeOK {
			c.Log.V(1).Info("skipping invalid element", "id", r.ContextElement.ID, "code", r.StatusCode.Code, "details", r.StatusCode.Details)
			continue
		}
		e, err := c.project(r.ContextElement)
		if err != nil {
			return nil, err
		}
		entities = append(entities, *e)
	}
	return entities, nil
}

func (c *Client) project(el api.ContextElement) (*api.Entity, error) {
	data, err := c.codec().FromAttributes(el.Attributes)
	if err != nil {
		return nil, err
	}
	return &api.Entity{ID: api.LocalID(el.ID), Data: data}, nil
}

func (c *Client) entityType() string {
	if c.Config.Type == "" {
		return DefaultType
	}
	return c.Config.Type
}

func (c *Client) entityPath(id string) string {
	t := c.entityType()
	return "contextEntities/type/" + url.PathEscape(t) + "/id/" + url.PathEscape(api.QualifiedID(t, id))
}

func (c *Client) collectionPath() string {
	return "contextEntityTypes/" + url.PathEscape(c.entityType())
}
