package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"parcelas/database"
	"parcelas/services"
	"parcelas/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// PurchaseController processa as requisições de compras e parcelas
type PurchaseController struct {
	purchaseService    *services.PurchaseService
	installmentService *services.InstallmentService
	summaryService     *services.SummaryService
}

// NewPurchaseController cria uma nova instância de PurchaseController
func NewPurchaseController(db *database.Database, emailService *services.EmailService) *PurchaseController {
	return &PurchaseController{
		purchaseService:    services.NewPurchaseService(db.DB),
		installmentService: services.NewInstallmentService(db.DB, emailService),
		summaryService:     services.NewSummaryService(db.DB),
	}
}

// userID obtém o ID do usuário autenticado do contexto
func userID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := r.Context().Value("user_id").(uint)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return id, true
}

// purchaseID obtém o ID da compra da URL
func purchaseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		http.Error(w, "Invalid purchase ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError converte um erro dos serviços no status HTTP adequado
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrPurchaseNotFound), errors.Is(err, services.ErrInstallmentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// CreatePurchase processa a criação de uma compra parcelada
func (c *PurchaseController) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var dto services.CreatePurchaseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dto.UserID = uid

	purchase, err := c.purchaseService.Create(dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, purchase)
}

// GetPurchases processa a listagem das compras do usuário
func (c *PurchaseController) GetPurchases(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	purchases, err := c.purchaseService.List(uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, purchases)
}

// GetPurchase processa a consulta de uma compra
func (c *PurchaseController) GetPurchase(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	pid, ok := purchaseID(w, r)
	if !ok {
		return
	}

	purchase, err := c.purchaseService.GetByID(pid, uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, purchase)
}

// UpdatePurchase processa a edição de uma compra
func (c *PurchaseController) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	pid, ok := purchaseID(w, r)
	if !ok {
		return
	}

	var dto services.UpdatePurchaseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	purchase, err := c.purchaseService.Update(pid, uid, dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, purchase)
}

// DeletePurchase processa a remoção de uma compra
func (c *PurchaseController) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	pid, ok := purchaseID(w, r)
	if !ok {
		return
	}

	if err := c.purchaseService.Delete(pid, uid); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetInstallments processa a listagem das parcelas de uma compra
func (c *PurchaseController) GetInstallments(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	pid, ok := purchaseID(w, r)
	if !ok {
		return
	}

	installments, err := c.installmentService.ListForPurchase(pid, uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, installments)
}

// PayNextInstallment marca como paga a próxima parcela em aberto da compra
func (c *PurchaseController) PayNextInstallment(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	pid, ok := purchaseID(w, r)
	if !ok {
		return
	}

	purchase, err := c.installmentService.MarkNextPaid(pid, uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, purchase)
}

// SetInstallmentPaidRequest representa o corpo da alteração de uma parcela
type SetInstallmentPaidRequest struct {
	Paid bool `json:"paid"`
}

// SetInstallmentPaid define o estado de pagamento de uma parcela específica
func (c *PurchaseController) SetInstallmentPaid(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	pid, ok := purchaseID(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	number, err := strconv.Atoi(vars["number"])
	if err != nil || number < 1 {
		http.Error(w, "Invalid installment number", http.StatusBadRequest)
		return
	}

	var req SetInstallmentPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	purchase, err := c.installmentService.MarkPaid(pid, uid, number, req.Paid)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, purchase)
}

// GetMonthlySummary devolve o total de parcelas a vencer no mês informado
func (c *PurchaseController) GetMonthlySummary(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	month := r.URL.Query().Get("month")
	if month == "" {
		http.Error(w, "Query parameter month is required", http.StatusBadRequest)
		return
	}

	summary, err := c.summaryService.MonthlyTotal(uid, month)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// GetMetrics devolve as métricas internas da aplicação
func (c *PurchaseController) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if _, ok := userID(w, r); !ok {
		return
	}

	writeJSON(w, http.StatusOK, utils.GetMetrics().Snapshot())
}
