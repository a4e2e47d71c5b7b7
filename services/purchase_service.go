package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"parcelas/models"
	"parcelas/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrPurchaseNotFound indica que a compra não existe ou não pertence ao usuário
var ErrPurchaseNotFound = errors.New("compra não encontrada")

// ErrInstallmentNotFound indica que a parcela não existe
var ErrInstallmentNotFound = errors.New("parcela não encontrada")

// ErrValidation indica dados de entrada inválidos. Os erros de validação
// envolvem este sentinela para serem distinguidos dos erros internos.
var ErrValidation = errors.New("dados inválidos")

// CreatePurchaseDTO representa os dados para criação de uma compra parcelada
type CreatePurchaseDTO struct {
	Name              string   `json:"name" validate:"required,min=1,max=255"`
	TotalValue        float64  `json:"totalValue" validate:"required,gt=0"`
	InstallmentValue  *float64 `json:"installmentValue,omitempty" validate:"omitempty,gt=0"`
	TotalInstallments int      `json:"totalInstallments" validate:"required,gt=0"`
	PaidInstallments  int      `json:"paidInstallments" validate:"gte=0"`
	PurchaseDate      string   `json:"purchaseDate" validate:"required,datetime=2006-01-02"`
	UserID            uint     `json:"-" validate:"required"`
}

// UpdatePurchaseDTO representa os dados para edição de uma compra.
// Campos nulos não são alterados.
type UpdatePurchaseDTO struct {
	Name              *string  `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	TotalValue        *float64 `json:"totalValue,omitempty" validate:"omitempty,gt=0"`
	InstallmentValue  *float64 `json:"installmentValue,omitempty" validate:"omitempty,gt=0"`
	TotalInstallments *int     `json:"totalInstallments,omitempty" validate:"omitempty,gt=0"`
	PurchaseDate      *string  `json:"purchaseDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// PurchaseDTO representa a resposta com os dados de uma compra
type PurchaseDTO struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	TotalValue        decimal.Decimal `json:"totalValue"`
	InstallmentValue  decimal.Decimal `json:"installmentValue"`
	TotalInstallments int             `json:"totalInstallments"`
	PaidInstallments  int             `json:"paidInstallments"`
	PurchaseDate      string          `json:"purchaseDate"`
	CreatedAt         string          `json:"createdAt"`
}

// PurchaseService fornece métodos para trabalhar com compras parceladas
type PurchaseService struct {
	db        *gorm.DB
	validator *validator.Validate
	metrics   *utils.Metrics
}

// NewPurchaseService cria uma nova instância de PurchaseService
func NewPurchaseService(db *gorm.DB) *PurchaseService {
	return &PurchaseService{
		db:        db,
		validator: validator.New(),
		metrics:   utils.GetMetrics(),
	}
}

// validateDTO valida um DTO e devolve as mensagens de erro
func validateDTO(validate *validator.Validate, dto interface{}) error {
	if err := validate.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "o campo "+e.Field()+" é obrigatório")
			case "gt":
				errorMessages = append(errorMessages, "o campo "+e.Field()+" deve ser maior que "+e.Param())
			case "gte":
				errorMessages = append(errorMessages, "o campo "+e.Field()+" deve ser maior ou igual a "+e.Param())
			case "min":
				errorMessages = append(errorMessages, "o campo "+e.Field()+" deve ter no mínimo "+e.Param()+" caracteres")
			case "max":
				errorMessages = append(errorMessages, "o campo "+e.Field()+" deve ter no máximo "+e.Param()+" caracteres")
			case "datetime":
				errorMessages = append(errorMessages, "o campo "+e.Field()+" deve estar no formato AAAA-MM-DD")
			case "email":
				errorMessages = append(errorMessages, "o campo "+e.Field()+" deve ser um email válido")
			default:
				errorMessages = append(errorMessages, "o campo "+e.Field()+" é inválido")
			}
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errorMessages, "; "))
	}
	return nil
}

// toPurchaseDTO converte o modelo Purchase em DTO
func toPurchaseDTO(purchase *models.Purchase) *PurchaseDTO {
	return &PurchaseDTO{
		ID:                purchase.ID.String(),
		Name:              purchase.Name,
		TotalValue:        purchase.TotalValue,
		InstallmentValue:  purchase.InstallmentValue,
		TotalInstallments: purchase.TotalInstallments,
		PaidInstallments:  purchase.PaidInstallments,
		PurchaseDate:      purchase.PurchaseDate.Format("2006-01-02"),
		CreatedAt:         purchase.CreatedAt.Format(time.RFC3339),
	}
}

// Create cria uma nova compra e gera as suas parcelas na mesma transação
func (s *PurchaseService) Create(dto CreatePurchaseDTO) (result *PurchaseDTO, err error) {
	start := time.Now()
	defer func() {
		utils.LogOperation("purchase.create", start, err)
		s.metrics.RecordPurchaseOperation("create", err)
	}()

	// Validamos o DTO
	if err = validateDTO(s.validator, dto); err != nil {
		return nil, err
	}

	// Parcelas pagas nunca podem exceder o total de parcelas
	if dto.PaidInstallments > dto.TotalInstallments {
		return nil, fmt.Errorf("%w: parcelas pagas não podem exceder o total de parcelas", ErrValidation)
	}

	// Interpretamos a data da compra
	purchaseDate, parseErr := time.Parse("2006-01-02", dto.PurchaseDate)
	if parseErr != nil {
		return nil, fmt.Errorf("%w: data da compra inválida", ErrValidation)
	}

	totalValue := decimal.NewFromFloat(dto.TotalValue).Round(2)

	// Calculamos o valor da parcela quando não for informado
	var installmentValue decimal.Decimal
	if dto.InstallmentValue != nil {
		installmentValue = decimal.NewFromFloat(*dto.InstallmentValue).Round(2)
	} else {
		installmentValue = totalValue.DivRound(decimal.NewFromInt(int64(dto.TotalInstallments)), 2)
	}

	// Iniciamos a transação
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("erro ao iniciar a transação")
	}

	// Criamos a compra
	purchase := &models.Purchase{
		UserID:            dto.UserID,
		Name:              dto.Name,
		TotalValue:        totalValue,
		InstallmentValue:  installmentValue,
		TotalInstallments: dto.TotalInstallments,
		PaidInstallments:  dto.PaidInstallments,
		PurchaseDate:      purchaseDate,
	}

	if err = tx.Create(purchase).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("erro ao criar a compra")
	}

	// Geramos as parcelas da compra
	installments := GenerateSchedule(purchase)

	if err = tx.Create(&installments).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("erro ao criar as parcelas")
	}

	// Confirmamos a transação
	if err = tx.Commit().Error; err != nil {
		return nil, errors.New("erro ao confirmar a transação")
	}

	return toPurchaseDTO(purchase), nil
}

// Update aplica as alterações a uma compra. Quando um campo que afeta o
// cronograma muda (total de parcelas, valor da parcela ou data da compra),
// todas as parcelas são apagadas e regeneradas a partir do estado editado,
// mantendo como pagas as primeiras N parcelas do novo cronograma, onde N é
// o contador atual limitado ao novo total.
func (s *PurchaseService) Update(purchaseID uuid.UUID, userID uint, dto UpdatePurchaseDTO) (result *PurchaseDTO, err error) {
	start := time.Now()
	defer func() {
		utils.LogOperation("purchase.update", start, err)
		s.metrics.RecordPurchaseOperation("update", err)
	}()

	// Validamos o DTO
	if err = validateDTO(s.validator, dto); err != nil {
		return nil, err
	}

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

	scheduleChanged := dto.InstallmentValue != nil || dto.TotalInstallments != nil || dto.PurchaseDate != nil

	// Aplicamos as alterações
	if dto.Name != nil {
		purchase.Name = *dto.Name
	}
	if dto.TotalValue != nil {
		purchase.TotalValue = decimal.NewFromFloat(*dto.TotalValue).Round(2)
	}
	if dto.InstallmentValue != nil {
		purchase.InstallmentValue = decimal.NewFromFloat(*dto.InstallmentValue).Round(2)
	}
	if dto.TotalInstallments != nil {
		purchase.TotalInstallments = *dto.TotalInstallments
	}
	if dto.PurchaseDate != nil {
		purchaseDate, parseErr := time.Parse("2006-01-02", *dto.PurchaseDate)
		if parseErr != nil {
			tx.Rollback()
			return nil, fmt.Errorf("%w: data da compra inválida", ErrValidation)
		}
		purchase.PurchaseDate = purchaseDate
	}

	// Limitamos o contador de pagas ao novo total
	if purchase.PaidInstallments > purchase.TotalInstallments {
		purchase.PaidInstallments = purchase.TotalInstallments
	}

	if err = tx.Save(&purchase).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("erro ao atualizar a compra")
	}

	// Regeneramos o cronograma quando necessário
	if scheduleChanged {
		if err = tx.Where("purchase_id = ?", purchase.ID).Delete(&models.Installment{}).Error; err != nil {
			tx.Rollback()
			return nil, errors.New("erro ao remover as parcelas antigas")
		}

		installments := GenerateSchedule(&purchase)
		if err = tx.Create(&installments).Error; err != nil {
			tx.Rollback()
			return nil, errors.New("erro ao recriar as parcelas")
		}
	}

	// Confirmamos a transação
	if err = tx.Commit().Error; err != nil {
		return nil, errors.New("erro ao confirmar a transação")
	}

	if scheduleChanged {
		s.metrics.RecordPurchaseOperation("regenerate", nil)
	}

	return toPurchaseDTO(&purchase), nil
}

// Delete remove uma compra e todas as suas parcelas. Remover uma compra
// que já não existe é tratado como sucesso.
func (s *PurchaseService) Delete(purchaseID uuid.UUID, userID uint) (err error) {
	start := time.Now()
	defer func() {
		utils.LogOperation("purchase.delete", start, err)
		s.metrics.RecordPurchaseOperation("delete", err)
	}()

	// Iniciamos a transação
	tx := s.db.Begin()
	if tx.Error != nil {
		return errors.New("erro ao iniciar a transação")
	}

	// Buscamos a compra do usuário
	var purchase models.Purchase
	if err = tx.Where("id = ? AND user_id = ?", purchaseID, userID).First(&purchase).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Já foi removida; nada a fazer
			return nil
		}
		return errors.New("erro ao buscar a compra")
	}

	// Removemos as parcelas
	if err = tx.Where("purchase_id = ?", purchase.ID).Delete(&models.Installment{}).Error; err != nil {
		tx.Rollback()
		return errors.New("erro ao remover as parcelas")
	}

	// Removemos a compra
	if err = tx.Delete(&purchase).Error; err != nil {
		tx.Rollback()
		return errors.New("erro ao remover a compra")
	}

	// Confirmamos a transação
	if err = tx.Commit().Error; err != nil {
		return errors.New("erro ao confirmar a transação")
	}

	return nil
}

// GetByID retorna uma compra do usuário
func (s *PurchaseService) GetByID(purchaseID uuid.UUID, userID uint) (*PurchaseDTO, error) {
	var purchase models.Purchase
	if err := s.db.Where("id = ? AND user_id = ?", purchaseID, userID).First(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, errors.New("erro ao buscar a compra")
	}
	return toPurchaseDTO(&purchase), nil
}

// List retorna todas as compras do usuário, das mais recentes para as mais antigas
func (s *PurchaseService) List(userID uint) ([]PurchaseDTO, error) {
	var purchases []models.Purchase
	if err := s.db.Where("user_id = ?", userID).
		Order("purchase_date DESC").
		Find(&purchases).Error; err != nil {
		return nil, errors.New("erro ao buscar as compras")
	}

	dtos := make([]PurchaseDTO, len(purchases))
	for i := range purchases {
		dtos[i] = *toPurchaseDTO(&purchases[i])
	}
	return dtos, nil
}
