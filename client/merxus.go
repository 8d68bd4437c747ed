package client

import (
	"context"
	"fmt"
	"net/http"
)

// MerxusService covers the /merxus namespace. It is only useful with a
// merxus-scoped session; the backend rejects tenant tokens on these routes.
type MerxusService struct {
	client *Client
}

// TenantSummary is the cross-tenant listing row shown in the tenant
// selector.
type TenantSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TenantType string `json:"tenantType"`
	Active     bool   `json:"active"`
}

func (s *MerxusService) Tenants(ctx context.Context) ([]TenantSummary, error) {
	var out []TenantSummary
	if err := s.client.do(ctx, http.MethodGet, "/merxus/tenants", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MerxusService) Restaurants(ctx context.Context) ([]Restaurant, error) {
	var out []Restaurant
	if err := s.client.do(ctx, http.MethodGet, "/merxus/restaurants", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MerxusService) Restaurant(ctx context.Context, id string) (*Restaurant, error) {
	var out Restaurant
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("/merxus/restaurants/%s", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MerxusService) CreateRestaurant(ctx context.Context, restaurant Restaurant) (*Restaurant, error) {
	if err := restaurant.Validate(); err != nil {
		return nil, err
	}

	phone, err := NormalizePhone(restaurant.Phone, "US")
	if err != nil {
		return nil, err
	}
	restaurant.Phone = phone

	var out Restaurant
	if err := s.client.do(ctx, http.MethodPost, "/merxus/restaurants", restaurant, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MerxusService) DeactivateTenant(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodPost, fmt.Sprintf("/merxus/tenants/%s/deactivate", id), nil, nil)
}
