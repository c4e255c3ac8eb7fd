package equipment

import (
	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/resource"
)

type Equipment struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
}

var Definition = resource.Definition[Equipment, resource.NameFilter]{
	Name:           "equipment",
	Path:           api.RouteEquipment,
	SearchPath:     api.RouteEquipmentSearch,
	NewFilter:      func() resource.NameFilter { return resource.NameFilter{} },
	Key:            func(e *Equipment) string { return e.ID },
	Label:          func(e *Equipment) string { return e.Name },
	ZeroBasedPages: true,
}

func NewService(client *api.Client, pageSize int) *resource.Service[Equipment, resource.NameFilter] {
	return resource.NewService(client, Definition, pageSize)
}
