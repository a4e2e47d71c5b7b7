package services

import (
	"time"

	"parcelas/config"
	"parcelas/models"
	"parcelas/utils"

	"gorm.io/gorm"
)

// ReminderService verifica periodicamente as parcelas a vencer e envia
// lembretes por email. Apenas lê o banco; o estado das compras e parcelas
// nunca é alterado por aqui.
type ReminderService struct {
	db       *gorm.DB
	email    *EmailService
	interval time.Duration
	window   int // dias de antecedência do aviso
}

// NewReminderService cria uma nova instância de ReminderService
func NewReminderService(db *gorm.DB, email *EmailService, cfg *config.Config) *ReminderService {
	return &ReminderService{
		db:       db,
		email:    email,
		interval: time.Duration(cfg.Reminder.IntervalHours) * time.Hour,
		window:   cfg.Reminder.WindowDays,
	}
}

// Start inicia a verificação periódica de parcelas a vencer
func (s *ReminderService) Start() {
	ticker := time.NewTicker(s.interval)
	go func() {
		for range ticker.C {
			if err := s.processReminders(); err != nil {
				utils.LogError("Erro ao processar os lembretes de vencimento: %v", err)
			}
		}
	}()
}

// startOfDay devolve a meia-noite da data no fuso horário dela.
// Truncar contra a época UTC deslocaria o início do dia pela diferença
// do fuso e uma parcela vencendo hoje poderia ficar fora da janela.
func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// processReminders envia lembretes das parcelas não pagas com vencimento
// dentro da janela configurada. Envio é melhor esforço: falhas são apenas
// registradas no log.
func (s *ReminderService) processReminders() error {
	today := startOfDay(time.Now())
	windowEnd := today.AddDate(0, 0, s.window)

	var installments []models.Installment
	if err := s.db.Where("paid = ? AND due_date >= ? AND due_date <= ?", false, today, windowEnd).
		Order("due_date ASC").
		Find(&installments).Error; err != nil {
		return err
	}

	metrics := utils.GetMetrics()

	for i := range installments {
		installment := &installments[i]

		// Carregamos a compra e o seu dono
		var purchase models.Purchase
		if err := s.db.Preload("User").First(&purchase, "id = ?", installment.PurchaseID).Error; err != nil {
			utils.LogError("Erro ao carregar a compra da parcela %s: %v", installment.ID, err)
			continue
		}

		if err := s.email.SendInstallmentReminder(
			purchase.User.Email,
			purchase.Name,
			installment.Number,
			purchase.TotalInstallments,
			installment.Value,
			installment.DueDate,
		); err != nil {
			utils.LogError("Erro ao enviar o lembrete da parcela %d da compra %s: %v",
				installment.Number, purchase.Name, err)
			continue
		}

		metrics.RecordPurchaseOperation("reminder", nil)
	}

	return nil
}
