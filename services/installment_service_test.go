package services

import (
	"errors"
	"testing"

	"parcelas/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// createTestPurchase cria uma compra via serviço e devolve o seu ID
func createTestPurchase(t *testing.T, db *gorm.DB, userID uint, dto CreatePurchaseDTO) uuid.UUID {
	t.Helper()

	dto.UserID = userID
	created, err := NewPurchaseService(db).Create(dto)
	if err != nil {
		t.Fatalf("erro ao criar a compra: %v", err)
	}
	return uuid.MustParse(created.ID)
}

func TestMarkNextPaidThreeTimes(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewInstallmentService(db, nil)

	purchaseID := createTestPurchase(t, db, user.ID, CreatePurchaseDTO{
		Name:              "TV",
		TotalValue:        1200,
		TotalInstallments: 12,
		PurchaseDate:      "2024-03-15",
	})

	// Pagamos três parcelas em sequência
	var last *PurchaseDTO
	for i := 0; i < 3; i++ {
		var err error
		last, err = service.MarkNextPaid(purchaseID, user.ID)
		if err != nil {
			t.Fatalf("erro ao pagar a parcela %d: %v", i+1, err)
		}
	}

	if last.PaidInstallments != 3 {
		t.Errorf("parcelas pagas: got %d want 3", last.PaidInstallments)
	}

	// As parcelas 1..3 devem estar pagas, as demais em aberto
	var installments []models.Installment
	db.Where("purchase_id = ?", purchaseID).Order("number ASC").Find(&installments)
	for _, installment := range installments {
		wantPaid := installment.Number <= 3
		if installment.Paid != wantPaid {
			t.Errorf("parcela %d: paid got %v want %v", installment.Number, installment.Paid, wantPaid)
		}
	}

	assertCounterConsistent(t, db, purchaseID.String())
}

func TestMarkNextPaidAtCeilingIsNoop(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewInstallmentService(db, nil)

	purchaseID := createTestPurchase(t, db, user.ID, CreatePurchaseDTO{
		Name:              "Cadeira",
		TotalValue:        300,
		TotalInstallments: 3,
		PaidInstallments:  3,
		PurchaseDate:      "2024-01-05",
	})

	// Todas pagas: a operação não altera nada
	result, err := service.MarkNextPaid(purchaseID, user.ID)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if result.PaidInstallments != 3 {
		t.Errorf("parcelas pagas: got %d want 3", result.PaidInstallments)
	}
	if got := countPaid(t, db, purchaseID.String()); got != 3 {
		t.Errorf("parcelas pagas na tabela: got %d want 3", got)
	}
}

func TestMarkPaidUnmarkRecounts(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewInstallmentService(db, nil)

	purchaseID := createTestPurchase(t, db, user.ID, CreatePurchaseDTO{
		Name:              "Fogão",
		TotalValue:        1000,
		TotalInstallments: 10,
		PaidInstallments:  3,
		PurchaseDate:      "2024-02-10",
	})

	// Desmarcamos a parcela 2: ficam pagas a 1 e a 3
	result, err := service.MarkPaid(purchaseID, user.ID, 2, false)
	if err != nil {
		t.Fatalf("erro ao desmarcar a parcela: %v", err)
	}
	if result.PaidInstallments != 2 {
		t.Errorf("parcelas pagas: got %d want 2", result.PaidInstallments)
	}

	assertCounterConsistent(t, db, purchaseID.String())
}

func TestMarkPaidSelfHealsCounterDrift(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewInstallmentService(db, nil)

	purchaseID := createTestPurchase(t, db, user.ID, CreatePurchaseDTO{
		Name:              "Armário",
		TotalValue:        800,
		TotalInstallments: 8,
		PaidInstallments:  2,
		PurchaseDate:      "2024-03-01",
	})

	// Corrompemos o contador denormalizado de propósito
	if err := db.Model(&models.Purchase{}).
		Where("id = ?", purchaseID).
		Update("paid_installments", 7).Error; err != nil {
		t.Fatalf("erro ao corromper o contador: %v", err)
	}

	// A recontagem corrige o desvio: 2 pagas na criação + a parcela 3
	result, err := service.MarkPaid(purchaseID, user.ID, 3, true)
	if err != nil {
		t.Fatalf("erro ao marcar a parcela: %v", err)
	}
	if result.PaidInstallments != 3 {
		t.Errorf("parcelas pagas: got %d want 3", result.PaidInstallments)
	}

	assertCounterConsistent(t, db, purchaseID.String())
}

func TestMarkPaidInstallmentNotFound(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewInstallmentService(db, nil)

	purchaseID := createTestPurchase(t, db, user.ID, CreatePurchaseDTO{
		Name:              "Ventilador",
		TotalValue:        200,
		TotalInstallments: 2,
		PurchaseDate:      "2024-06-01",
	})

	_, err := service.MarkPaid(purchaseID, user.ID, 99, true)
	if !errors.Is(err, ErrInstallmentNotFound) {
		t.Errorf("erro: got %v want %v", err, ErrInstallmentNotFound)
	}
}

func TestMarkNextPaidPurchaseNotFound(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewInstallmentService(db, nil)

	_, err := service.MarkNextPaid(uuid.New(), user.ID)
	if !errors.Is(err, ErrPurchaseNotFound) {
		t.Errorf("erro: got %v want %v", err, ErrPurchaseNotFound)
	}
}

func TestPurchasePaidOffOnlyOnTransition(t *testing.T) {
	cases := []struct {
		name         string
		previousPaid int
		paidCount    int
		total        int
		want         bool
	}{
		{"última parcela quitada", 2, 3, 3, true},
		{"ainda em aberto", 1, 2, 3, false},
		{"já estava quitada", 3, 3, 3, false},
		{"parcela desmarcada", 3, 2, 3, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := purchasePaidOff(tc.previousPaid, tc.paidCount, tc.total); got != tc.want {
				t.Errorf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestMarkPaidFinalInstallment(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewInstallmentService(db, nil)

	purchaseID := createTestPurchase(t, db, user.ID, CreatePurchaseDTO{
		Name:              "Guarda-roupa",
		TotalValue:        400,
		TotalInstallments: 2,
		PaidInstallments:  1,
		PurchaseDate:      "2024-04-01",
	})

	// Quitar a última parcela não pode falhar sem serviço de email
	result, err := service.MarkPaid(purchaseID, user.ID, 2, true)
	if err != nil {
		t.Fatalf("erro ao quitar a compra: %v", err)
	}
	if result.PaidInstallments != 2 {
		t.Errorf("parcelas pagas: got %d want 2", result.PaidInstallments)
	}
	assertCounterConsistent(t, db, purchaseID.String())
}

func TestListForPurchaseOrdered(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewInstallmentService(db, nil)

	purchaseID := createTestPurchase(t, db, user.ID, CreatePurchaseDTO{
		Name:              "Micro-ondas",
		TotalValue:        600,
		TotalInstallments: 6,
		PurchaseDate:      "2024-01-20",
	})

	installments, err := service.ListForPurchase(purchaseID, user.ID)
	if err != nil {
		t.Fatalf("erro ao listar as parcelas: %v", err)
	}
	if len(installments) != 6 {
		t.Fatalf("quantidade de parcelas: got %d want 6", len(installments))
	}
	for i, installment := range installments {
		if installment.Number != i+1 {
			t.Errorf("posição %d: número got %d want %d", i, installment.Number, i+1)
		}
	}
}
