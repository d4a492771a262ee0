package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ItemStatus is the moderation status of a catalog item.
type ItemStatus string

const (
	// ItemStatusPending is the initial status of every new item.
	ItemStatusPending ItemStatus = "Pending"

	// ItemStatusApproved marks an item as publicly listed.
	ItemStatusApproved ItemStatus = "Approved"

	// ItemStatusFeatured marks an item as promoted. Featured items are always public.
	ItemStatusFeatured ItemStatus = "Featured"
)

// Valid reports whether s is one of the known statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusPending, ItemStatusApproved, ItemStatusFeatured:
		return true
	}
	return false
}

// PricingTier describes how a listed tool is priced.
type PricingTier string

const (
	PricingFree     PricingTier = "Free"
	PricingFreemium PricingTier = "Freemium"
	PricingPaid     PricingTier = "Paid"
)

// ErrInvalidItemStatus is returned when a status outside the enum is written.
var ErrInvalidItemStatus = DomainError{Code: "INVALID_STATUS", Message: "status must be one of Pending, Approved, Featured"}

// CatalogItem is a tool listed in the directory.
//
// Status and the Featured flag are two independent axes: any status may be
// combined with either flag value. UpdatedAt is refreshed by every mutator.
type CatalogItem struct {
	ID          int64       `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Category    string      `json:"category" db:"category"`
	Description string      `json:"description" db:"description"`
	Link        string      `json:"link" db:"link"`
	ImageURL    string      `json:"imageURL" db:"image_url"`
	Pricing     PricingTier `json:"pricing" db:"pricing"`
	Status      ItemStatus  `json:"status" db:"status"`
	Featured    bool        `json:"featured" db:"featured"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
}

// TableName returns the database table name for CatalogItem.
func (c CatalogItem) TableName() string {
	return tablePrefix + "catalog_item"
}

// NewCatalogItem creates a pending, non-featured item.
func NewCatalogItem(name, category, description, link string, pricing PricingTier) CatalogItem {
	now := time.Now()
	if pricing == "" {
		pricing = PricingFree
	}
	return CatalogItem{
		ID:          0,
		Name:        normalizeText(name),
		Category:    normalizeText(category),
		Description: description,
		Link:        normalizeText(link),
		Pricing:     pricing,
		Status:      ItemStatusPending,
		Featured:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks field constraints. The returned error is a validation.Errors
// keyed by JSON field name.
func (c CatalogItem) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&c.Category, validation.Required, validation.Length(1, 100)),
		validation.Field(&c.Link, validation.Required, isHTTPURL),
		validation.Field(&c.ImageURL, isHTTPURL),
		validation.Field(&c.Pricing, validation.Required, validation.In(PricingFree, PricingFreemium, PricingPaid)),
		validation.Field(&c.Status, validation.Required, validation.In(ItemStatusPending, ItemStatusApproved, ItemStatusFeatured)),
	)
}

// SetStatus writes any of the three statuses, including moving backwards.
// Transition legality is decided by the caller's policy, not here.
func (c *CatalogItem) SetStatus(status ItemStatus) error {
	if !status.Valid() {
		return ErrInvalidItemStatus
	}
	c.Status = status
	c.Touch()
	return nil
}

// SetFeatured toggles the featured flag independently of the status.
func (c *CatalogItem) SetFeatured(featured bool) {
	c.Featured = featured
	c.Touch()
}

// Touch refreshes UpdatedAt.
func (c *CatalogItem) Touch() {
	c.UpdatedAt = time.Now()
}

// IsPublic reports whether the item is visible in the public directory.
func (c CatalogItem) IsPublic() bool {
	return c.Status == ItemStatusApproved || c.Status == ItemStatusFeatured
}

// Snapshot captures the fields a notification is rendered from.
// publicURL is the item's page in the directory; it falls back to the tool link.
func (c CatalogItem) Snapshot(publicURL string) ItemSnapshot {
	if publicURL == "" {
		publicURL = c.Link
	}
	return ItemSnapshot{
		ItemID:      c.ID,
		Name:        c.Name,
		Description: c.Description,
		Category:    c.Category,
		URL:         publicURL,
		ImageURL:    c.ImageURL,
	}
}

// CatalogFilter narrows catalog listings. Zero values mean "no filter".
type CatalogFilter struct {
	Status   ItemStatus
	Category string
	Featured *bool
}

// ItemUpdate is a partial update of the descriptive fields. Nil fields are
// left untouched. Status and the featured flag have their own mutators.
type ItemUpdate struct {
	Name        *string      `json:"name"`
	Category    *string      `json:"category"`
	Description *string      `json:"description"`
	Link        *string      `json:"link"`
	ImageURL    *string      `json:"imageURL"`
	Pricing     *PricingTier `json:"pricing"`
}

// IsEmpty reports whether the update carries no fields.
func (u ItemUpdate) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.Description == nil &&
		u.Link == nil && u.ImageURL == nil && u.Pricing == nil
}

// Apply copies the set fields onto c and refreshes UpdatedAt.
func (u ItemUpdate) Apply(c *CatalogItem) {
	if u.Name != nil {
		c.Name = normalizeText(*u.Name)
	}
	if u.Category != nil {
		c.Category = normalizeText(*u.Category)
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Link != nil {
		c.Link = normalizeText(*u.Link)
	}
	if u.ImageURL != nil {
		c.ImageURL = normalizeText(*u.ImageURL)
	}
	if u.Pricing != nil {
		c.Pricing = *u.Pricing
	}
	c.Touch()
}
