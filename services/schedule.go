package services

import (
	"time"

	"parcelas/models"
)

// AddMonthsClamped soma meses a uma data mantendo o dia do mês.
// Quando o mês de destino é mais curto, o dia é fixado no último dia
// do mês (31/01 + 1 mês = 29/02 em ano bissexto, 28/02 nos demais).
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, t.Location())
}

// GenerateSchedule gera as parcelas de uma compra.
// Para i em 1..TotalInstallments: número i, valor igual ao valor da
// parcela, vencimento em PurchaseDate + (i-1) meses e paga quando
// i <= PaidInstallments. Determinística: a mesma compra sempre produz
// a mesma sequência.
func GenerateSchedule(purchase *models.Purchase) []models.Installment {
	if purchase.TotalInstallments <= 0 {
		return []models.Installment{}
	}

	installments := make([]models.Installment, purchase.TotalInstallments)
	for i := 1; i <= purchase.TotalInstallments; i++ {
		installments[i-1] = models.Installment{
			PurchaseID: purchase.ID,
			Number:     i,
			Value:      purchase.InstallmentValue,
			DueDate:    AddMonthsClamped(purchase.PurchaseDate, i-1),
			Paid:       i <= purchase.PaidInstallments,
		}
	}

	return installments
}
