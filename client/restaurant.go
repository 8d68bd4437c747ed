package client

import (
	"context"
	"fmt"
	"net/http"
)

// RestaurantService covers the /restaurant namespace.
type RestaurantService struct {
	client *Client
}

func (s *RestaurantService) Users(ctx context.Context) ([]TenantUser, error) {
	var out []TenantUser
	if err := s.client.do(ctx, http.MethodGet, "/restaurant/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RestaurantService) InviteUser(ctx context.Context, user TenantUser) (*TenantUser, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	var out TenantUser
	if err := s.client.do(ctx, http.MethodPost, "/restaurant/users", user, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RestaurantService) RemoveUser(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodDelete, fmt.Sprintf("/restaurant/users/%s", id), nil, nil)
}

func (s *RestaurantService) Settings(ctx context.Context) (*Restaurant, error) {
	var out Restaurant
	if err := s.client.do(ctx, http.MethodGet, "/restaurant/settings", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RestaurantService) UpdateSettings(ctx context.Context, restaurant Restaurant) (*Restaurant, error) {
	if err := restaurant.Validate(); err != nil {
		return nil, err
	}

	phone, err := NormalizePhone(restaurant.Phone, "US")
	if err != nil {
		return nil, err
	}
	restaurant.Phone = phone

	var out Restaurant
	if err := s.client.do(ctx, http.MethodPut, "/restaurant/settings", restaurant, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RestaurantService) Analytics(ctx context.Context, period string) (*AnalyticsSummary, error) {
	var out AnalyticsSummary
	path := fmt.Sprintf("/restaurant/analytics?period=%s", period)
	if err := s.client.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
