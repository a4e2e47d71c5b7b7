package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Installment representa uma parcela de uma compra
type Installment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseID uuid.UUID       `gorm:"column:purchase_id;type:uuid;not null;index;uniqueIndex:idx_installments_purchase_number"`
	Number     int             `gorm:"column:number;not null;uniqueIndex:idx_installments_purchase_number"` // Posição 1..N dentro da compra
	Value      decimal.Decimal `gorm:"column:value;type:decimal(12,2);not null"`
	DueDate    time.Time       `gorm:"column:due_date;type:date;not null"` // Data de vencimento da parcela
	Paid       bool            `gorm:"column:paid;not null;default:false"`
	CreatedAt  time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (Installment) TableName() string {
	return "installments"
}

// BeforeCreate gera o identificador da parcela
func (i *Installment) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
