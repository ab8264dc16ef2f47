package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ismetkarakus/coziyoo-v2-sub000/pkg/enums"
)

// SellerComplianceProfile holds the seller's registration verdict. Sellers
// with a blocked status cannot accept or advance orders.
type SellerComplianceProfile struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID              `gorm:"column:seller_id;type:uuid;not null;uniqueIndex:ux_compliance_seller"`
	CountryCode string                 `gorm:"column:country_code;type:text;not null"`
	Status      enums.ComplianceStatus `gorm:"column:status;type:compliance_status;not null;default:'pending'"`
	ReviewedBy  *uuid.UUID             `gorm:"column:reviewed_by;type:uuid"`
	ReviewNote  *string                `gorm:"column:review_note"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
