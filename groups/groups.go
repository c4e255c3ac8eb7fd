package groups

import (
	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/resource"
)

type Group struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

var Definition = resource.Definition[Group, resource.NameFilter]{
	Name:           "group",
	Path:           api.RouteGroup,
	SearchPath:     api.RouteGroupSearch,
	NewFilter:      func() resource.NameFilter { return resource.NameFilter{} },
	Key:            func(g *Group) string { return g.ID },
	Label:          func(g *Group) string { return g.Name },
	ZeroBasedPages: true,
}

func NewService(client *api.Client, pageSize int) *resource.Service[Group, resource.NameFilter] {
	return resource.NewService(client, Definition, pageSize)
}
