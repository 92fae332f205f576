package alloc

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

// ResourceInput holds the editable fields of a resource.
type ResourceInput struct {
	Name        string
	Type        string
	Location    string
	Description string
}

// CreateResource registers a bookable resource.
func (g *Gateway) CreateResource(ctx context.Context, caller Caller, in ResourceInput) (_ *model.Resource, err error) {
	ctx, span := g.startSpan(ctx, "create_resource", caller)
	defer func() { endSpan(span, err) }()

	if err := requirePrivileged(caller, "creating resources"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}

	return store.CreateResource(ctx, g.db, model.Resource{
		Name:        strings.TrimSpace(in.Name),
		Type:        in.Type,
		Location:    in.Location,
		Description: in.Description,
		CreatedAt:   g.clock(),
	})
}

func getLiveResource(ctx context.Context, tx sqlx.ExtContext, id string) (*model.Resource, error) {
	r, err := store.GetResource(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if r == nil || r.DeletedAt != nil {
		return nil, fmt.Errorf("%w: resource %s", ErrNotFound, id)
	}
	return r, nil
}

// GetResource returns a resource that has not been deleted.
func (g *Gateway) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	return getLiveResource(ctx, g.db, id)
}

// ListResources returns resources, optionally of one type.
func (g *Gateway) ListResources(ctx context.Context, resourceType string) ([]model.Resource, error) {
	return store.ListResources(ctx, g.db, resourceType)
}

// UpdateResource changes a resource's descriptive fields.
func (g *Gateway) UpdateResource(ctx context.Context, caller Caller, id string, in ResourceInput) (_ *model.Resource, err error) {
	ctx, span := g.startSpan(ctx, "update_resource", caller, attribute.String("alloc.resource_id", id))
	defer func() { endSpan(span, err) }()

	if err := requirePrivileged(caller, "editing resources"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}

	var r *model.Resource
	err = g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		current, err := getLiveResource(ctx, tx, id)
		if err != nil {
			return err
		}

		current.Name = strings.TrimSpace(in.Name)
		current.Type = in.Type
		current.Location = in.Location
		current.Description = in.Description
		current.UpdatedAt = g.clock()
		if err := store.UpdateResource(ctx, tx, *current); err != nil {
			return err
		}

		r, err = store.GetResource(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// SetResourceStatus changes a resource's status. Existing reservations are
// kept; only new bookings are refused while the resource is unavailable.
func (g *Gateway) SetResourceStatus(ctx context.Context, caller Caller, id, status string) (_ *model.Resource, err error) {
	ctx, span := g.startSpan(ctx, "set_resource_status", caller,
		attribute.String("alloc.resource_id", id),
		attribute.String("alloc.status", status))
	defer func() { endSpan(span, err) }()

	if err := requirePrivileged(caller, "changing resource status"); err != nil {
		return nil, err
	}
	if !model.ValidResourceStatus(status) {
		return nil, fmt.Errorf("%w: unknown resource status %q", ErrInvalidTransition, status)
	}

	var r *model.Resource
	err = g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := getLiveResource(ctx, tx, id); err != nil {
			return err
		}
		if err := store.SetResourceStatus(ctx, tx, id, status, g.clock()); err != nil {
			return err
		}

		var err error
		r, err = store.GetResource(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteResource removes a resource from the registry.
func (g *Gateway) DeleteResource(ctx context.Context, caller Caller, id string) (err error) {
	ctx, span := g.startSpan(ctx, "delete_resource", caller, attribute.String("alloc.resource_id", id))
	defer func() { endSpan(span, err) }()

	if err := requirePrivileged(caller, "deleting resources"); err != nil {
		return err
	}

	return g.unit(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := getLiveResource(ctx, tx, id); err != nil {
			return err
		}
		return store.DeleteResource(ctx, tx, id, g.clock())
	})
}
