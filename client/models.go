package client

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	session "github.com/merxus/go-session"
	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone parses a raw phone field and returns it in E.164. The
// platform stores every number this way; region is the default country for
// numbers without a prefix, e.g. "US".
func NormalizePhone(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "unparseable phone number").
			WithMetadata(map[string]any{"value": raw})
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"value": raw})
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Listing is a real-estate listing owned by an agent tenant.
type Listing struct {
	ID        string           `json:"id,omitempty"`
	AgentID   string           `json:"agentId,omitempty"`
	Address   string           `json:"address"`
	Price     int64            `json:"price"`
	Status    string           `json:"status,omitempty"`
	CreatedAt session.FlexTime `json:"createdAt,omitempty"`
	UpdatedAt session.FlexTime `json:"updatedAt,omitempty"`
}

func (l Listing) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Address, validation.Required, validation.Length(5, 300)),
		validation.Field(&l.Price, validation.Required, validation.Min(1)),
	)
}

// Lead is a prospective buyer captured by the assistant.
type Lead struct {
	ID        string           `json:"id,omitempty"`
	AgentID   string           `json:"agentId,omitempty"`
	Name      string           `json:"name"`
	Phone     string           `json:"phone"`
	Email     string           `json:"email,omitempty"`
	Source    string           `json:"source,omitempty"`
	CreatedAt session.FlexTime `json:"createdAt,omitempty"`
}

func (l Lead) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&l.Phone, validation.Required),
		validation.Field(&l.Email, is.Email),
	)
}

// Showing is a scheduled listing visit.
type Showing struct {
	ID        string           `json:"id,omitempty"`
	ListingID string           `json:"listingId"`
	LeadID    string           `json:"leadId,omitempty"`
	At        session.FlexTime `json:"at"`
	Status    string           `json:"status,omitempty"`
}

func (s Showing) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ListingID, validation.Required),
	)
}

// RoutingRule directs inbound calls for a voice office.
type RoutingRule struct {
	ID         string `json:"id,omitempty"`
	OfficeID   string `json:"officeId,omitempty"`
	Pattern    string `json:"pattern"`
	Target     string `json:"target"`
	Priority   int    `json:"priority"`
	AfterHours bool   `json:"afterHours,omitempty"`
}

func (r RoutingRule) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Pattern, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Target, validation.Required),
		validation.Field(&r.Priority, validation.Min(0)),
	)
}

// VoiceSettings configures the office assistant.
type VoiceSettings struct {
	OfficeID      string `json:"officeId,omitempty"`
	Greeting      string `json:"greeting,omitempty"`
	PhoneNumber   string `json:"phoneNumber"`
	BusinessHours string `json:"businessHours,omitempty"`
	Region        string `json:"region,omitempty"`
}

func (v VoiceSettings) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.PhoneNumber, validation.Required),
	)
}

// Restaurant is a restaurant tenant record.
type Restaurant struct {
	ID        string           `json:"id,omitempty"`
	Name      string           `json:"name"`
	Phone     string           `json:"phone"`
	Address   string           `json:"address,omitempty"`
	Timezone  string           `json:"timezone,omitempty"`
	CreatedAt session.FlexTime `json:"createdAt,omitempty"`
}

func (r Restaurant) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Phone, validation.Required),
	)
}

// TenantUser is a dashboard user within one tenant.
type TenantUser struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u TenantUser) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Email, validation.Required, is.Email),
		validation.Field(&u.Role, validation.Required),
	)
}

// AnalyticsSummary aggregates assistant activity for a period.
type AnalyticsSummary struct {
	Period       string `json:"period"`
	Calls        int    `json:"calls"`
	Bookings     int    `json:"bookings"`
	MissedCalls  int    `json:"missedCalls"`
	AvgDuration  int    `json:"avgDurationSeconds"`
}
