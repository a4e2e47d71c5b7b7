package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase representa uma compra parcelada
type Purchase struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID            uint            `gorm:"column:user_id;not null;index"`
	User              User            `gorm:"foreignKey:UserID;references:ID"`
	Name              string          `gorm:"column:name;not null;size:255"`
	TotalValue        decimal.Decimal `gorm:"column:total_value;type:decimal(12,2);not null"`
	InstallmentValue  decimal.Decimal `gorm:"column:installment_value;type:decimal(12,2);not null"`
	TotalInstallments int             `gorm:"column:total_installments;not null"`
	PaidInstallments  int             `gorm:"column:paid_installments;not null;default:0"`
	PurchaseDate      time.Time       `gorm:"column:purchase_date;type:date;not null"`
	Installments      []Installment   `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (Purchase) TableName() string {
	return "purchases"
}

// BeforeCreate hook de validação antes da criação
func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.TotalInstallments < 1 {
		return errors.New("o total de parcelas deve ser pelo menos 1")
	}
	if p.PaidInstallments < 0 || p.PaidInstallments > p.TotalInstallments {
		return errors.New("parcelas pagas fora do intervalo permitido")
	}
	return nil
}
