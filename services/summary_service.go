package services

import (
	"errors"
	"time"

	"parcelas/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MonthlySummaryDTO representa o total de parcelas a vencer em um mês
type MonthlySummaryDTO struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// SummaryService calcula totais mensais de parcelas em aberto
type SummaryService struct {
	db *gorm.DB
}

// NewSummaryService cria uma nova instância de SummaryService
func NewSummaryService(db *gorm.DB) *SummaryService {
	return &SummaryService{db: db}
}

// MonthlyTotal soma as parcelas NÃO pagas do usuário com vencimento no mês
// informado (formato AAAA-MM). A soma é feita em decimal para não acumular
// erro de ponto flutuante.
func (s *SummaryService) MonthlyTotal(userID uint, month string) (*MonthlySummaryDTO, error) {
	monthStart, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, errors.New("o mês deve estar no formato AAAA-MM")
	}
	monthEnd := monthStart.AddDate(0, 1, 0)

	var installments []models.Installment
	if err := s.db.
		Joins("JOIN purchases ON purchases.id = installments.purchase_id").
		Where("purchases.user_id = ?", userID).
		Where("installments.paid = ?", false).
		Where("installments.due_date >= ? AND installments.due_date < ?", monthStart, monthEnd).
		Find(&installments).Error; err != nil {
		return nil, errors.New("erro ao buscar as parcelas do mês")
	}

	total := decimal.Zero
	for i := range installments {
		total = total.Add(installments[i].Value)
	}

	return &MonthlySummaryDTO{
		Month: month,
		Total: total,
		Count: len(installments),
	}, nil
}
