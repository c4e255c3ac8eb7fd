package positions

import (
	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/resource"
)

// Position is a job title users can be assigned to.
type Position struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

var Definition = resource.Definition[Position, resource.NameFilter]{
	Name:           "position",
	Path:           api.RoutePosition,
	SearchPath:     api.RoutePositionSearch,
	NewFilter:      func() resource.NameFilter { return resource.NameFilter{} },
	Key:            func(p *Position) string { return p.ID },
	Label:          func(p *Position) string { return p.Name },
	ZeroBasedPages: true,
}

func NewService(client *api.Client, pageSize int) *resource.Service[Position, resource.NameFilter] {
	return resource.NewService(client, Definition, pageSize)
}
