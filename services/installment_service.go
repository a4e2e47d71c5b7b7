package services

import (
	"errors"
	"time"

	"parcelas/models"
	"parcelas/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstallmentDTO representa os dados de uma parcela
type InstallmentDTO struct {
	ID      string          `json:"id"`
	Number  int             `json:"number"`
	Value   decimal.Decimal `json:"value"`
	DueDate string          `json:"dueDate"`
	Paid    bool            `json:"paid"`
}

// InstallmentService fornece métodos para trabalhar com parcelas
type InstallmentService struct {
	db        *gorm.DB
	validator *validator.Validate
	metrics   *utils.Metrics
	email     *EmailService // opcional; quando nulo, nenhum aviso é enviado
}

// NewInstallmentService cria uma nova instância de InstallmentService
func NewInstallmentService(db *gorm.DB, email *EmailService) *InstallmentService {
	return &InstallmentService{
		db:        db,
		validator: validator.New(),
		metrics:   utils.GetMetrics(),
		email:     email,
	}
}

// toInstallmentDTO converte o modelo Installment em DTO
func toInstallmentDTO(installment *models.Installment) InstallmentDTO {
	return InstallmentDTO{
		ID:      installment.ID.String(),
		Number:  installment.Number,
		Value:   installment.Value,
		DueDate: installment.DueDate.Format("2006-01-02"),
		Paid:    installment.Paid,
	}
}

// ListForPurchase retorna as parcelas de uma compra ordenadas pelo número
func (s *InstallmentService) ListForPurchase(purchaseID uuid.UUID, userID uint) ([]InstallmentDTO, error) {
	// Confirmamos que a compra pertence ao usuário
	var purchase models.Purchase
	if err := s.db.Where("id = ? AND user_id = ?", purchaseID, userID).First(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, errors.New("erro ao buscar a compra")
	}

	var installments []models.Installment
	if err := s.db.Where("purchase_id = ?", purchaseID).
		Order("number ASC").
		Find(&installments).Error; err != nil {
		return nil, errors.New("erro ao buscar as parcelas")
	}

	dtos := make([]InstallmentDTO, len(installments))
	for i := range installments {
		dtos[i] = toInstallmentDTO(&installments[i])
	}
	return dtos, nil
}

// MarkPaid define o estado de pagamento de uma parcela e em seguida
// recalcula o contador de parcelas pagas da compra CONTANDO as parcelas
// pagas, nunca incrementando. A recontagem corrige qualquer divergência
// anterior entre o contador e a tabela de parcelas.
func (s *InstallmentService) MarkPaid(purchaseID uuid.UUID, userID uint, number int, paid bool) (result *PurchaseDTO, err error) {
	start := time.Now()
	defer func() {
		utils.LogOperation("installment.markPaid", start, err)
		s.metrics.RecordPurchaseOperation("mark", err)
	}()

	// Iniciamos a transação
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("erro ao iniciar a transação")
	}

	// Buscamos a compra do usuário
	var purchase models.Purchase
	if err = tx.Where("id = ? AND user_id = ?", purchaseID, userID).First(&purchase).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, errors.New("erro ao buscar a compra")
	}

	previousPaid := purchase.PaidInstallments

	// Atualizamos o estado da parcela
	res := tx.Model(&models.Installment{}).
		Where("purchase_id = ? AND number = ?", purchaseID, number).
		Update("paid", paid)
	if res.Error != nil {
		tx.Rollback()
		return nil, errors.New("erro ao atualizar a parcela")
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrInstallmentNotFound
	}

	// Recontamos as parcelas pagas
	var paidCount int64
	if err = tx.Model(&models.Installment{}).
		Where("purchase_id = ? AND paid = ?", purchaseID, true).
		Count(&paidCount).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("erro ao contar as parcelas pagas")
	}

	// Gravamos o contador recalculado na compra
	purchase.PaidInstallments = int(paidCount)
	if err = tx.Model(&purchase).Update("paid_installments", purchase.PaidInstallments).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("erro ao atualizar o contador de parcelas pagas")
	}

	// Confirmamos a transação
	if err = tx.Commit().Error; err != nil {
		return nil, errors.New("erro ao confirmar a transação")
	}

	// Avisamos o dono quando a compra acabou de ser quitada
	if paid && purchasePaidOff(previousPaid, purchase.PaidInstallments, purchase.TotalInstallments) {
		s.notifyPurchasePaid(&purchase)
	}

	return toPurchaseDTO(&purchase), nil
}

// purchasePaidOff indica se a compra acabou de ser quitada: o contador
// recalculado alcançou o total e antes da operação ainda não o alcançava.
func purchasePaidOff(previousPaid, paidCount, total int) bool {
	return total > 0 && paidCount == total && previousPaid < total
}

// notifyPurchasePaid envia o aviso de compra quitada. Envio é melhor
// esforço: falhas são apenas registradas no log.
func (s *InstallmentService) notifyPurchasePaid(purchase *models.Purchase) {
	if s.email == nil {
		return
	}

	var user models.User
	if err := s.db.First(&user, purchase.UserID).Error; err != nil {
		utils.LogError("Erro ao carregar o dono da compra %s: %v", purchase.Name, err)
		return
	}

	if err := s.email.SendPurchasePaidNotification(user.Email, purchase.Name); err != nil {
		utils.LogError("Erro ao enviar o aviso de compra quitada %s: %v", purchase.Name, err)
	}
}

// MarkNextPaid marca como paga a próxima parcela em aberto da compra.
// Quando todas as parcelas já estão pagas, nada é alterado e o estado
// atual é devolvido.
func (s *InstallmentService) MarkNextPaid(purchaseID uuid.UUID, userID uint) (*PurchaseDTO, error) {
	// Buscamos a compra do usuário
	var purchase models.Purchase
	if err := s.db.Where("id = ? AND user_id = ?", purchaseID, userID).First(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, errors.New("erro ao buscar a compra")
	}

	// Todas as parcelas já foram pagas
	if purchase.PaidInstallments >= purchase.TotalInstallments {
		return toPurchaseDTO(&purchase), nil
	}

	// Marcamos a próxima parcela em aberto
	return s.MarkPaid(purchaseID, userID, purchase.PaidInstallments+1, true)
}
