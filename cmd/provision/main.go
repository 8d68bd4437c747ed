// Command provision seeds the payment catalog from a local YAML file.
//
// Usage:
//
//	provision [catalog.yml]
//
// The catalog lists products and their prices; each entry is posted to
// the catalog API in order. Existing entries are reported as conflicts
// and skipped.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	session "github.com/merxus/go-session"
	"gopkg.in/yaml.v3"
)

const defaultCatalogPath = "catalog.yml"

type Catalog struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"api"`
	Products []Product `yaml:"products"`
}

type Product struct {
	Key         string  `yaml:"key" json:"key"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description,omitempty"`
	TenantType  string  `yaml:"tenant_type" json:"tenantType"`
	Prices      []Price `yaml:"prices" json:"prices"`
}

type Price struct {
	Key      string `yaml:"key" json:"key"`
	Currency string `yaml:"currency" json:"currency"`
	// AmountCents is the unit amount in the currency's minor unit.
	AmountCents int64  `yaml:"amount_cents" json:"amountCents"`
	Interval    string `yaml:"interval" json:"interval"`
}

func (p Product) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Key, validation.Required),
		validation.Field(&p.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&p.TenantType, validation.Required, validation.By(validTenantType)),
		validation.Field(&p.Prices, validation.Required),
	)
}

func (p Price) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Key, validation.Required),
		validation.Field(&p.Currency, validation.Required, validation.Length(3, 3)),
		validation.Field(&p.AmountCents, validation.Min(0)),
		validation.Field(&p.Interval, validation.Required, validation.In("month", "year", "one_time")),
	)
}

func validTenantType(value any) error {
	s, _ := value.(string)
	if _, ok := session.ParseTenantType(s); !ok {
		return fmt.Errorf("unknown tenant type %q", s)
	}
	return nil
}

func main() {
	logger := session.NewDefaultLogger()

	path := defaultCatalogPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	if err := run(context.Background(), logger, path); err != nil {
		logger.Error("provisioning failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger session.Logger, path string) error {
	catalog, err := loadCatalog(path)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}

	var created, skipped int
	for _, product := range catalog.Products {
		if err := product.Validate(); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid product").
				WithMetadata(map[string]any{"product": product.Key})
		}
		for _, price := range product.Prices {
			if err := price.Validate(); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid price").
					WithMetadata(map[string]any{"product": product.Key, "price": price.Key})
			}
		}

		status, err := postProduct(ctx, client, catalog, product)
		if err != nil {
			return err
		}
		switch status {
		case http.StatusConflict:
			logger.Warn("product %s already exists, skipping", product.Key)
			skipped++
		default:
			logger.Info("created product %s (%d prices)", product.Key, len(product.Prices))
			created++
		}
	}

	logger.Info("catalog provisioned: %d created, %d skipped", created, skipped)
	return nil
}

func loadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read catalog file").
			WithMetadata(map[string]any{"path": path})
	}

	var catalog Catalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse catalog file").
			WithMetadata(map[string]any{"path": path})
	}

	if catalog.API.BaseURL == "" {
		return nil, goerrors.New("catalog is missing api.base_url", goerrors.CategoryValidation)
	}
	if len(catalog.Products) == 0 {
		return nil, goerrors.New("catalog has no products", goerrors.CategoryValidation)
	}
	return &catalog, nil
}

func postProduct(ctx context.Context, client *http.Client, catalog *Catalog, product Product) (int, error) {
	payload, err := json.Marshal(product)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode product")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		catalog.API.BaseURL+"/v1/catalog/products", bytes.NewReader(payload))
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build catalog request")
	}
	req.Header.Set("Content-Type", "application/json")
	if catalog.API.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+catalog.API.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryOperation, "catalog request failed").
			WithMetadata(map[string]any{"product": product.Key})
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusConflict {
		return resp.StatusCode, goerrors.New("catalog API rejected product", goerrors.CategoryOperation).
			WithMetadata(map[string]any{
				"product": product.Key,
				"status":  resp.StatusCode,
			})
	}
	return resp.StatusCode, nil
}
