package open311

import (
	"context"
	"errors"

	"civicserve-backend/internal/models"
)

type rawService struct {
	ServiceCode string `json:"service_code"`
	ServiceName string `json:"service_name"`
	Description string `json:"description"`
	Group       string `json:"group"`
	Metadata    bool   `json:"metadata"`
}

type rawServiceDefinition struct {
	ServiceCode string `json:"service_code"`
	Attributes  []struct {
		Code                string `json:"code"`
		Description         string `json:"description"`
		Datatype            string `json:"datatype"`
		Required            bool   `json:"required"`
		Order               int    `json:"order"`
		Variable            bool   `json:"variable"`
		Values              []struct {
			Key  string `json:"key"`
			Name string `json:"name"`
		} `json:"values"`
	} `json:"attributes"`
}

// Services lists every reportable service type.
func (c *Client) Services(ctx context.Context) ([]models.ServiceType, error) {
	var raw []rawService
	if err := c.get(ctx, "services.json", nil, "services", &raw); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}

	services := make([]models.ServiceType, 0, len(raw))
	for _, s := range raw {
		services = append(services, models.ServiceType{
			Code:        s.ServiceCode,
			Name:        s.ServiceName,
			Description: s.Description,
			Group:       s.Group,
			HasMetadata: s.Metadata,
		})
	}
	return services, nil
}

// ServiceMetadata fetches the attribute form for one service code. An
// unknown code is a negative result (nil), not an error.
func (c *Client) ServiceMetadata(ctx context.Context, code string) (*models.ServiceMetadata, error) {
	var raw rawServiceDefinition
	if err := c.get(ctx, "services/"+code+".json", nil, "serviceMetadata", &raw); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}

	meta := &models.ServiceMetadata{ServiceCode: raw.ServiceCode}
	for _, a := range raw.Attributes {
		// Informational rows (variable=false) are display-only and carry
		// no form field.
		attr := models.ServiceAttribute{
			Code:        a.Code,
			Description: a.Description,
			DataType:    a.Datatype,
			Required:    a.Required && a.Variable,
			Order:       a.Order,
		}
		for _, v := range a.Values {
			attr.Values = append(attr.Values, models.AttributeValue{Key: v.Key, Name: v.Name})
		}
		meta.Attributes = append(meta.Attributes, attr)
	}
	return meta, nil
}
