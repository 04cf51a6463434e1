package models

import "time"

// MediaKind identifies the transport of a media type.
type MediaKind string

const (
	// MediaKindEmail delivers notifications by e-mail. Recipient addresses
	// are validated before being stored.
	MediaKindEmail MediaKind = "email"
	// MediaKindSMS delivers notifications by SMS.
	MediaKindSMS MediaKind = "sms"
	// MediaKindScript delivers notifications through a custom script.
	MediaKindScript MediaKind = "script"
)

// SendtoMaxLen is the maximum stored length of a media recipient list.
// Provisioning drops excess recipients from the end rather than truncating
// mid-address.
const SendtoMaxLen = 1024

// MediaType represents a configured notification channel.
type MediaType struct {
	// ID is the unique identifier for the media type.
	ID uint64 `gorm:"primaryKey"`
	// Name is the display name of the media type.
	Name string `gorm:"unique;size:100;not null"`
	// Kind is the transport (email, sms, script).
	Kind MediaKind `gorm:"type:varchar(20);not null;default:'email'"`
	// CreatedAt is the timestamp when the media type was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the media type was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the MediaType model.
func (MediaType) TableName() string {
	return "media_type"
}

// Media represents a user's notification recipient for one media type.
// For directory-owned users these rows are rewritten on every provisioning
// sync from the mapped IdP attributes.
type Media struct {
	// ID is the unique identifier for the media entry.
	ID uint64 `gorm:"primaryKey"`
	// UserID is the owning user. Media cascade away with the user.
	UserID uint64 `gorm:"not null;index"`
	// User is the associated user.
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// MediaTypeID is the media type used for delivery.
	MediaTypeID uint64 `gorm:"not null"`
	// Sendto is the recipient address list, newline separated for e-mail.
	Sendto string `gorm:"size:1024;not null"`
	// CreatedAt is the timestamp when the media was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the media was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Media model.
func (Media) TableName() string {
	return "media"
}
