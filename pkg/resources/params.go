package resources

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/merchworks/shopify-admin-client/pkg/pagination"
)

// Parameter defaults applied when a caller leaves a field zero.
const (
	// DefaultLimit is the page size requested when none is given.
	DefaultLimit = 50

	// MaxLimit is the largest page size the Admin API accepts.
	MaxLimit = 250

	// DefaultMaxPages bounds a fetch that the caller did not bound.
	DefaultMaxPages = 100
)

// ValidationError reports a rejected accessor parameter. It is raised before
// any network I/O, so the caller can correct the input and retry.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Allowed enum values, per the Admin API's order and product filters.
var (
	orderStatuses            = enum("open", "closed", "cancelled", "any")
	orderFinancialStatuses   = enum("authorized", "pending", "paid", "partially_paid", "refunded", "voided", "partially_refunded", "unpaid", "any")
	orderFulfillmentStatuses = enum("shipped", "partial", "unshipped", "unfulfilled", "any")
	productPublishedStatuses = enum("published", "unpublished", "any")
)

func enum(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func validateEnum(field, value string, allowed map[string]struct{}) error {
	if value == "" {
		return nil
	}
	if _, ok := allowed[value]; !ok {
		keys := make([]string, 0, len(allowed))
		for k := range allowed {
			keys = append(keys, k)
		}
		return invalid(field, "%q is not one of the allowed values %v", value, keys)
	}
	return nil
}

func validateTime(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return invalid(field, "%q is not an RFC3339 timestamp", value)
	}
	return nil
}

func validateIDs(field string, ids []int64) error {
	for _, id := range ids {
		if id <= 0 {
			return invalid(field, "id %d is not a positive integer", id)
		}
	}
	return nil
}

func validateLimit(limit int) error {
	if limit < 1 || limit > MaxLimit {
		return invalid("limit", "must be between 1 and %d (got %d)", MaxLimit, limit)
	}
	return nil
}

func validateMaxPages(maxPages int) error {
	if maxPages < 1 {
		return invalid("max_pages", "must be >= 1 (got %d)", maxPages)
	}
	return nil
}

// PagingParams are the fetch bounds shared by every accessor.
type PagingParams struct {
	// Limit is the page size, 1 to 250. Zero means DefaultLimit.
	Limit int

	// MaxPages caps the total number of pages fetched. Zero means
	// DefaultMaxPages.
	MaxPages int

	// Fields restricts the columns the API returns. Optional.
	Fields []string
}

func (p *PagingParams) applyDefaults() {
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.MaxPages == 0 {
		p.MaxPages = DefaultMaxPages
	}
}

func (p PagingParams) validate() error {
	if err := validateLimit(p.Limit); err != nil {
		return err
	}
	return validateMaxPages(p.MaxPages)
}

func (p PagingParams) baseQuery() url.Values {
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", p.Limit))
	if len(p.Fields) > 0 {
		query.Set("fields", strings.Join(p.Fields, ","))
	}
	return query
}

// OrderParams filter an orders fetch.
type OrderParams struct {
	PagingParams

	// IDs restricts the fetch to specific orders.
	IDs []int64

	// Status is one of open, closed, cancelled, any.
	Status string

	// FinancialStatus filters on payment state.
	FinancialStatus string

	// FulfillmentStatus filters on shipping state.
	FulfillmentStatus string

	// SinceID returns orders after the given id.
	SinceID int64

	// Creation and update bounds, RFC3339.
	CreatedAtMin string
	CreatedAtMax string
	UpdatedAtMin string
	UpdatedAtMax string
}

// Validate checks every field and returns a *ValidationError on the first
// violation. Called by the accessor before any request is issued.
func (p *OrderParams) Validate() error {
	p.applyDefaults()
	if err := p.PagingParams.validate(); err != nil {
		return err
	}
	if err := validateIDs("ids", p.IDs); err != nil {
		return err
	}
	if err := validateEnum("status", p.Status, orderStatuses); err != nil {
		return err
	}
	if err := validateEnum("financial_status", p.FinancialStatus, orderFinancialStatuses); err != nil {
		return err
	}
	if err := validateEnum("fulfillment_status", p.FulfillmentStatus, orderFulfillmentStatuses); err != nil {
		return err
	}
	if p.SinceID < 0 {
		return invalid("since_id", "must be a positive integer (got %d)", p.SinceID)
	}
	for field, value := range map[string]string{
		"created_at_min": p.CreatedAtMin,
		"created_at_max": p.CreatedAtMax,
		"updated_at_min": p.UpdatedAtMin,
		"updated_at_max": p.UpdatedAtMax,
	} {
		if err := validateTime(field, value); err != nil {
			return err
		}
	}
	return nil
}

func (p OrderParams) query() url.Values {
	query := p.baseQuery()
	setIfPresent(query, "status", p.Status)
	setIfPresent(query, "financial_status", p.FinancialStatus)
	setIfPresent(query, "fulfillment_status", p.FulfillmentStatus)
	setIfPresent(query, "created_at_min", p.CreatedAtMin)
	setIfPresent(query, "created_at_max", p.CreatedAtMax)
	setIfPresent(query, "updated_at_min", p.UpdatedAtMin)
	setIfPresent(query, "updated_at_max", p.UpdatedAtMax)
	if p.SinceID > 0 {
		query.Set("since_id", fmt.Sprintf("%d", p.SinceID))
	}
	if len(p.IDs) > 0 {
		query.Set("ids", pagination.JoinIDs(p.IDs))
	}
	return query
}

// countQuery carries only the filters the count endpoint understands.
func (p OrderParams) countQuery() url.Values {
	query := url.Values{}
	setIfPresent(query, "status", p.Status)
	setIfPresent(query, "financial_status", p.FinancialStatus)
	setIfPresent(query, "fulfillment_status", p.FulfillmentStatus)
	setIfPresent(query, "created_at_min", p.CreatedAtMin)
	setIfPresent(query, "created_at_max", p.CreatedAtMax)
	setIfPresent(query, "updated_at_min", p.UpdatedAtMin)
	setIfPresent(query, "updated_at_max", p.UpdatedAtMax)
	if len(p.IDs) > 0 {
		query.Set("ids", pagination.JoinIDs(p.IDs))
	}
	return query
}

// ProductParams filter a products fetch.
type ProductParams struct {
	PagingParams

	// IDs restricts the fetch to specific products.
	IDs []int64

	// Vendor and ProductType are exact-match filters.
	Vendor      string
	ProductType string

	// PublishedStatus is one of published, unpublished, any.
	PublishedStatus string

	// SinceID returns products after the given id.
	SinceID int64

	// Creation and update bounds, RFC3339.
	CreatedAtMin string
	CreatedAtMax string
	UpdatedAtMin string
	UpdatedAtMax string
}

// Validate checks every field and returns a *ValidationError on the first
// violation.
func (p *ProductParams) Validate() error {
	p.applyDefaults()
	if err := p.PagingParams.validate(); err != nil {
		return err
	}
	if err := validateIDs("ids", p.IDs); err != nil {
		return err
	}
	if err := validateEnum("published_status", p.PublishedStatus, productPublishedStatuses); err != nil {
		return err
	}
	if p.SinceID < 0 {
		return invalid("since_id", "must be a positive integer (got %d)", p.SinceID)
	}
	for field, value := range map[string]string{
		"created_at_min": p.CreatedAtMin,
		"created_at_max": p.CreatedAtMax,
		"updated_at_min": p.UpdatedAtMin,
		"updated_at_max": p.UpdatedAtMax,
	} {
		if err := validateTime(field, value); err != nil {
			return err
		}
	}
	return nil
}

func (p ProductParams) query() url.Values {
	query := p.baseQuery()
	setIfPresent(query, "vendor", p.Vendor)
	setIfPresent(query, "product_type", p.ProductType)
	setIfPresent(query, "published_status", p.PublishedStatus)
	setIfPresent(query, "created_at_min", p.CreatedAtMin)
	setIfPresent(query, "created_at_max", p.CreatedAtMax)
	setIfPresent(query, "updated_at_min", p.UpdatedAtMin)
	setIfPresent(query, "updated_at_max", p.UpdatedAtMax)
	if p.SinceID > 0 {
		query.Set("since_id", fmt.Sprintf("%d", p.SinceID))
	}
	if len(p.IDs) > 0 {
		query.Set("ids", pagination.JoinIDs(p.IDs))
	}
	return query
}

func (p ProductParams) countQuery() url.Values {
	query := url.Values{}
	setIfPresent(query, "vendor", p.Vendor)
	setIfPresent(query, "product_type", p.ProductType)
	setIfPresent(query, "published_status", p.PublishedStatus)
	setIfPresent(query, "created_at_min", p.CreatedAtMin)
	setIfPresent(query, "created_at_max", p.CreatedAtMax)
	setIfPresent(query, "updated_at_min", p.UpdatedAtMin)
	setIfPresent(query, "updated_at_max", p.UpdatedAtMax)
	if len(p.IDs) > 0 {
		query.Set("ids", pagination.JoinIDs(p.IDs))
	}
	return query
}

// InventoryLevelParams filter an inventory-levels fetch. The endpoint takes
// id sets in the query string, so at least one of the two sets is required.
type InventoryLevelParams struct {
	PagingParams

	InventoryItemIDs []int64
	LocationIDs      []int64
}

// Validate checks every field and returns a *ValidationError on the first
// violation.
func (p *InventoryLevelParams) Validate() error {
	p.applyDefaults()
	if err := p.PagingParams.validate(); err != nil {
		return err
	}
	if len(p.InventoryItemIDs) == 0 && len(p.LocationIDs) == 0 {
		return invalid("inventory_item_ids", "at least one of inventory item ids or location ids is required")
	}
	if err := validateIDs("inventory_item_ids", p.InventoryItemIDs); err != nil {
		return err
	}
	return validateIDs("location_ids", p.LocationIDs)
}

// InventoryItemParams select the inventory items to fetch. The endpoint has
// no unfiltered listing, so ids are required.
type InventoryItemParams struct {
	PagingParams

	IDs []int64
}

// Validate checks every field and returns a *ValidationError on the first
// violation.
func (p *InventoryItemParams) Validate() error {
	p.applyDefaults()
	if err := p.PagingParams.validate(); err != nil {
		return err
	}
	if len(p.IDs) == 0 {
		return invalid("ids", "at least one inventory item id is required")
	}
	return validateIDs("ids", p.IDs)
}

// LocationParams bound a locations fetch. Locations take no filters.
type LocationParams struct {
	PagingParams
}

// Validate checks the paging bounds.
func (p *LocationParams) Validate() error {
	p.applyDefaults()
	return p.PagingParams.validate()
}

func setIfPresent(query url.Values, key, value string) {
	if value != "" {
		query.Set(key, value)
	}
}
