package open311

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "civicserve-backend/internal/errors"
	"civicserve-backend/internal/models"
)

type rawRequest struct {
	ServiceRequestID  string  `json:"service_request_id"`
	Token             string  `json:"token"`
	Status            string  `json:"status"`
	StatusNotes       string  `json:"status_notes"`
	ServiceName       string  `json:"service_name"`
	ServiceCode       string  `json:"service_code"`
	Description       string  `json:"description"`
	RequestedDatetime string  `json:"requested_datetime"`
	UpdatedDatetime   string  `json:"updated_datetime"`
	ExpectedDatetime  string  `json:"expected_datetime"`
	Address           string  `json:"address"`
	Lat               float64 `json:"lat"`
	Long              float64 `json:"long"`
	MediaURL          string  `json:"media_url"`

	// City extensions to the GeoReport shape.
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Activities []struct {
		Code          string `json:"code"`
		Description   string `json:"description"`
		CompletedDate string `json:"completed_date"`
	} `json:"activities"`
}

func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}

func (r rawRequest) toServiceCase() *models.ServiceCase {
	sc := &models.ServiceCase{
		RequestID:   r.ServiceRequestID,
		SystemID:    r.Token,
		Status:      r.Status,
		StatusNotes: r.StatusNotes,
		Description: r.Description,
		ServiceCode: r.ServiceCode,
		ServiceName: r.ServiceName,
		Address:     r.Address,
		RequestedAt: parseTime(r.RequestedDatetime),
		UpdatedAt:   parseTime(r.UpdatedDatetime),
		ExpectedAt:  parseTime(r.ExpectedDatetime),
	}
	if r.Lat != 0 || r.Long != 0 {
		sc.Location = &models.LatLng{Lat: r.Lat, Lng: r.Long}
	}
	sc.Requester.FirstName = r.FirstName
	sc.Requester.LastName = r.LastName
	sc.Requester.Email = r.Email
	sc.Requester.Phone = r.Phone
	for _, a := range r.Activities {
		sc.Activities = append(sc.Activities, models.CaseActivity{
			Code:        a.Code,
			Description: a.Description,
			CompletedAt: parseTime(a.CompletedDate),
		})
	}
	if r.MediaURL != "" {
		sc.Attachments = append(sc.Attachments, models.Attachment{URL: r.MediaURL})
	}
	return sc
}

// Requests fetches service requests by ID, using the single-entity endpoint
// for one ID and the bulk form for several. IDs the upstream does not
// recognize are simply absent from the returned map.
func (c *Client) Requests(ctx context.Context, ids []string) (map[string]*models.ServiceCase, error) {
	if len(ids) == 0 {
		return map[string]*models.ServiceCase{}, nil
	}

	var raw []rawRequest
	var err error
	if len(ids) == 1 {
		err = c.get(ctx, "request/"+ids[0]+".json", nil, "request", &raw)
	} else {
		query := url.Values{}
		query.Set("service_request_id", strings.Join(ids, ","))
		err = c.get(ctx, "requests.json", query, "requests", &raw)
	}
	if err != nil {
		if errors.Is(err, errNotFound) {
			return map[string]*models.ServiceCase{}, nil
		}
		return nil, err
	}

	cases := make(map[string]*models.ServiceCase, len(raw))
	for _, r := range raw {
		if r.ServiceRequestID == "" {
			continue
		}
		cases[r.ServiceRequestID] = r.toServiceCase()
	}
	return cases, nil
}

// CreateRequest submits a new service request as a form-encoded POST.
// Attribute key/value pairs use the upstream's bracketed field convention:
// attribute[CODE]=value. The creation response is always array-shaped; the
// first record is returned.
func (c *Client) CreateRequest(ctx context.Context, args *models.CreateCaseArgs) (*models.ServiceCase, error) {
	form := url.Values{}
	form.Set("service_code", args.ServiceCode)
	if args.Description != "" {
		form.Set("description", args.Description)
	}
	if args.FirstName != "" {
		form.Set("first_name", args.FirstName)
	}
	if args.LastName != "" {
		form.Set("last_name", args.LastName)
	}
	if args.Email != "" {
		form.Set("email", args.Email)
	}
	if args.Phone != "" {
		form.Set("phone", args.Phone)
	}
	if args.Address != "" {
		form.Set("address_string", args.Address)
	}
	if args.AddressID != "" {
		form.Set("address_id", args.AddressID)
	}
	if args.Location != nil {
		form.Set("lat", fmt.Sprintf("%f", args.Location.Lat))
		form.Set("long", fmt.Sprintf("%f", args.Location.Lng))
	}
	if args.MediaURL != "" {
		form.Set("media_url", args.MediaURL)
	}
	for code, value := range args.Attributes {
		form.Set(fmt.Sprintf("attribute[%s]", code), value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("requests.json", nil), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var raw []rawRequest
	if err := c.do(req, "createRequest", &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, apperrors.NewUpstreamError("open311", "createRequest", http.StatusOK, "creation response contained no records")
	}
	return raw[0].toServiceCase(), nil
}
