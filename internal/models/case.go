package models

import "time"

// ServiceCase is an Open311 service request as the portal sees it. The
// upstream system owns all mutation; the portal only reads and creates.
type ServiceCase struct {
	// RequestID is the external-facing case number shown to constituents.
	RequestID string `json:"requestId"`
	// SystemID is the upstream's internal record identifier.
	SystemID    string  `json:"systemId,omitempty"`
	Status      string  `json:"status"`
	StatusNotes string  `json:"statusNotes,omitempty"`
	Description string  `json:"description,omitempty"`
	ServiceCode string  `json:"serviceCode"`
	ServiceName string  `json:"serviceName"`
	Address     string  `json:"address,omitempty"`
	Location    *LatLng `json:"location,omitempty"`

	Requester struct {
		FirstName string `json:"firstName,omitempty"`
		LastName  string `json:"lastName,omitempty"`
		Email     string `json:"email,omitempty"`
		Phone     string `json:"phone,omitempty"`
	} `json:"requester"`

	RequestedAt *time.Time `json:"requestedAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	ExpectedAt  *time.Time `json:"expectedAt,omitempty"`

	// Activities is the ordered status-change history.
	Activities  []CaseActivity `json:"activities,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty"`
}

// CaseActivity is one status-change event in a case's history.
type CaseActivity struct {
	Code        string     `json:"code"`
	Description string     `json:"description,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Attachment is a media file associated with a case.
type Attachment struct {
	URL string `json:"url"`
}

// IndexedCase is the denormalized projection of a ServiceCase held in the
// search index. It is a strict subset of ServiceCase fields and must stay
// schema-compatible with the external indexer; the portal only queries it.
type IndexedCase struct {
	RequestID   string     `json:"requestId"`
	Status      string     `json:"status"`
	Description string     `json:"description,omitempty"`
	ServiceCode string     `json:"serviceCode"`
	ServiceName string     `json:"serviceName"`
	Address     string     `json:"address,omitempty"`
	Location    *LatLng    `json:"location,omitempty"`
	RequestedAt *time.Time `json:"requestedAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// BoundingBox is a rectangular lat/lng region for geo-filtered case search.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLng float64 `json:"minLng"`
	MaxLat float64 `json:"maxLat"`
	MaxLng float64 `json:"maxLng"`
}

// CreateCaseArgs is the input for creating a new service request.
type CreateCaseArgs struct {
	ServiceCode string            `json:"serviceCode"`
	Description string            `json:"description,omitempty"`
	FirstName   string            `json:"firstName,omitempty"`
	LastName    string            `json:"lastName,omitempty"`
	Email       string            `json:"email,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Address     string            `json:"address,omitempty"`
	AddressID   string            `json:"addressId,omitempty"`
	Location    *LatLng           `json:"location,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MediaURL    string            `json:"mediaUrl,omitempty"`
}

// ServiceType is one reportable service from the Open311 service list.
type ServiceType struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Group       string `json:"group,omitempty"`
	HasMetadata bool   `json:"hasMetadata"`
}

// ServiceMetadata describes the attribute form for one service code.
type ServiceMetadata struct {
	ServiceCode string             `json:"serviceCode"`
	Attributes  []ServiceAttribute `json:"attributes"`
}

// ServiceAttribute is one input field in a service's attribute form.
type ServiceAttribute struct {
	Code        string           `json:"code"`
	Description string           `json:"description"`
	DataType    string           `json:"dataType"`
	Required    bool             `json:"required"`
	Order       int              `json:"order"`
	Values      []AttributeValue `json:"values,omitempty"`
}

// AttributeValue is one option for a list-valued service attribute.
type AttributeValue struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}
