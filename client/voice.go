package client

import (
	"context"
	"fmt"
	"net/http"
)

// VoiceService covers the /voice namespace.
type VoiceService struct {
	client *Client
}

func (s *VoiceService) RoutingRules(ctx context.Context) ([]RoutingRule, error) {
	var out []RoutingRule
	if err := s.client.do(ctx, http.MethodGet, "/voice/routing-rules", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VoiceService) CreateRoutingRule(ctx context.Context, rule RoutingRule) (*RoutingRule, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	var out RoutingRule
	if err := s.client.do(ctx, http.MethodPost, "/voice/routing-rules", rule, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *VoiceService) UpdateRoutingRule(ctx context.Context, rule RoutingRule) (*RoutingRule, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	var out RoutingRule
	if err := s.client.do(ctx, http.MethodPut, fmt.Sprintf("/voice/routing-rules/%s", rule.ID), rule, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *VoiceService) DeleteRoutingRule(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodDelete, fmt.Sprintf("/voice/routing-rules/%s", id), nil, nil)
}

func (s *VoiceService) Settings(ctx context.Context) (*VoiceSettings, error) {
	var out VoiceSettings
	if err := s.client.do(ctx, http.MethodGet, "/voice/settings", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSettings normalizes the office number before submitting.
func (s *VoiceService) UpdateSettings(ctx context.Context, settings VoiceSettings) (*VoiceSettings, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	region := settings.Region
	if region == "" {
		region = "US"
	}
	phone, err := NormalizePhone(settings.PhoneNumber, region)
	if err != nil {
		return nil, err
	}
	settings.PhoneNumber = phone

	var out VoiceSettings
	if err := s.client.do(ctx, http.MethodPut, "/voice/settings", settings, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
