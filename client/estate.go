package client

import (
	"context"
	"fmt"
	"net/http"
)

// EstateService covers the /estate namespace.
type EstateService struct {
	client *Client
}

func (s *EstateService) Listings(ctx context.Context) ([]Listing, error) {
	var out []Listing
	if err := s.client.do(ctx, http.MethodGet, "/estate/listings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *EstateService) Listing(ctx context.Context, id string) (*Listing, error) {
	var out Listing
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("/estate/listings/%s", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *EstateService) CreateListing(ctx context.Context, listing Listing) (*Listing, error) {
	if err := listing.Validate(); err != nil {
		return nil, err
	}

	var out Listing
	if err := s.client.do(ctx, http.MethodPost, "/estate/listings", listing, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *EstateService) UpdateListing(ctx context.Context, listing Listing) (*Listing, error) {
	if err := listing.Validate(); err != nil {
		return nil, err
	}

	var out Listing
	if err := s.client.do(ctx, http.MethodPut, fmt.Sprintf("/estate/listings/%s", listing.ID), listing, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *EstateService) DeleteListing(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodDelete, fmt.Sprintf("/estate/listings/%s", id), nil, nil)
}

func (s *EstateService) Leads(ctx context.Context) ([]Lead, error) {
	var out []Lead
	if err := s.client.do(ctx, http.MethodGet, "/estate/leads", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLead normalizes the phone field before submitting; the backend
// rejects numbers that are not E.164.
func (s *EstateService) CreateLead(ctx context.Context, lead Lead, region string) (*Lead, error) {
	if err := lead.Validate(); err != nil {
		return nil, err
	}

	phone, err := NormalizePhone(lead.Phone, region)
	if err != nil {
		return nil, err
	}
	lead.Phone = phone

	var out Lead
	if err := s.client.do(ctx, http.MethodPost, "/estate/leads", lead, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *EstateService) Showings(ctx context.Context) ([]Showing, error) {
	var out []Showing
	if err := s.client.do(ctx, http.MethodGet, "/estate/showings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *EstateService) ScheduleShowing(ctx context.Context, showing Showing) (*Showing, error) {
	if err := showing.Validate(); err != nil {
		return nil, err
	}

	var out Showing
	if err := s.client.do(ctx, http.MethodPost, "/estate/showings", showing, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *EstateService) CancelShowing(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodDelete, fmt.Sprintf("/estate/showings/%s", id), nil, nil)
}
