package services

import (
	"errors"
	"testing"

	"parcelas/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB cria um banco SQLite em memória com o esquema migrado
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("erro ao abrir o banco de teste: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Purchase{}, &models.Installment{}); err != nil {
		t.Fatalf("erro ao migrar o banco de teste: %v", err)
	}

	return db
}

// newTestUser cadastra um usuário para os testes
func newTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{
		Name:     "Maria Silva",
		Email:    "maria@example.com",
		Password: "hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("erro ao criar o usuário de teste: %v", err)
	}
	return user
}

// countPaid conta as parcelas pagas de uma compra direto na tabela
func countPaid(t *testing.T, db *gorm.DB, purchaseID string) int {
	t.Helper()

	var count int64
	if err := db.Model(&models.Installment{}).
		Where("purchase_id = ? AND paid = ?", purchaseID, true).
		Count(&count).Error; err != nil {
		t.Fatalf("erro ao contar as parcelas pagas: %v", err)
	}
	return int(count)
}

// assertCounterConsistent verifica o invariante entre o contador da compra
// e a tabela de parcelas
func assertCounterConsistent(t *testing.T, db *gorm.DB, purchaseID string) {
	t.Helper()

	var purchase models.Purchase
	if err := db.First(&purchase, "id = ?", purchaseID).Error; err != nil {
		t.Fatalf("erro ao buscar a compra: %v", err)
	}
	if got := countPaid(t, db, purchaseID); got != purchase.PaidInstallments {
		t.Errorf("contador inconsistente: compra diz %d, tabela tem %d", purchase.PaidInstallments, got)
	}
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func TestCreatePurchaseGeneratesSchedule(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewPurchaseService(db)

	purchase, err := service.Create(CreatePurchaseDTO{
		Name:              "TV",
		TotalValue:        1200,
		TotalInstallments: 12,
		PurchaseDate:      "2024-03-15",
		UserID:            user.ID,
	})
	if err != nil {
		t.Fatalf("erro ao criar a compra: %v", err)
	}

	// O valor da parcela é derivado do total
	if !purchase.InstallmentValue.Equal(decimal.NewFromInt(100)) {
		t.Errorf("valor da parcela: got %s want 100", purchase.InstallmentValue)
	}
	if purchase.PaidInstallments != 0 {
		t.Errorf("parcelas pagas: got %d want 0", purchase.PaidInstallments)
	}

	var installments []models.Installment
	if err := db.Where("purchase_id = ?", purchase.ID).Order("number ASC").Find(&installments).Error; err != nil {
		t.Fatalf("erro ao buscar as parcelas: %v", err)
	}
	if len(installments) != 12 {
		t.Fatalf("quantidade de parcelas: got %d want 12", len(installments))
	}

	// Vencimentos no dia 15 de março/2024 a fevereiro/2025, todas em aberto
	want := []string{
		"2024-03-15", "2024-04-15", "2024-05-15", "2024-06-15",
		"2024-07-15", "2024-08-15", "2024-09-15", "2024-10-15",
		"2024-11-15", "2024-12-15", "2025-01-15", "2025-02-15",
	}
	for i, installment := range installments {
		if got := installment.DueDate.Format("2006-01-02"); got != want[i] {
			t.Errorf("parcela %d: vencimento got %s want %s", installment.Number, got, want[i])
		}
		if installment.Paid {
			t.Errorf("parcela %d deveria estar em aberto", installment.Number)
		}
		if !installment.Value.Equal(decimal.NewFromInt(100)) {
			t.Errorf("parcela %d: valor got %s want 100", installment.Number, installment.Value)
		}
	}

	assertCounterConsistent(t, db, purchase.ID)
}

func TestCreatePurchaseWithSeed(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewPurchaseService(db)

	// Importação retroativa: três parcelas já pagas
	purchase, err := service.Create(CreatePurchaseDTO{
		Name:              "Geladeira",
		TotalValue:        4200,
		TotalInstallments: 12,
		PaidInstallments:  3,
		PurchaseDate:      "2023-08-20",
		UserID:            user.ID,
	})
	if err != nil {
		t.Fatalf("erro ao criar a compra: %v", err)
	}

	if got := countPaid(t, db, purchase.ID); got != 3 {
		t.Errorf("parcelas pagas na tabela: got %d want 3", got)
	}
	assertCounterConsistent(t, db, purchase.ID)
}

func TestCreatePurchaseValidation(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewPurchaseService(db)

	cases := []struct {
		name string
		dto  CreatePurchaseDTO
	}{
		{"valor total zero", CreatePurchaseDTO{
			Name: "X", TotalValue: 0, TotalInstallments: 3, PurchaseDate: "2024-01-01", UserID: user.ID,
		}},
		{"total de parcelas zero", CreatePurchaseDTO{
			Name: "X", TotalValue: 100, TotalInstallments: 0, PurchaseDate: "2024-01-01", UserID: user.ID,
		}},
		{"pagas maior que o total", CreatePurchaseDTO{
			Name: "X", TotalValue: 100, TotalInstallments: 3, PaidInstallments: 4, PurchaseDate: "2024-01-01", UserID: user.ID,
		}},
		{"data inválida", CreatePurchaseDTO{
			Name: "X", TotalValue: 100, TotalInstallments: 3, PurchaseDate: "01/01/2024", UserID: user.ID,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Create(tc.dto)
			if err == nil {
				t.Fatal("esperava erro de validação")
			}
			// Erros de validação carregam o sentinela para virar HTTP 400
			if !errors.Is(err, ErrValidation) {
				t.Errorf("erro não identificado como validação: %v", err)
			}
		})
	}

	// Nenhuma compra deve ter sido gravada
	var count int64
	db.Model(&models.Purchase{}).Count(&count)
	if count != 0 {
		t.Errorf("compras gravadas após falhas de validação: %d", count)
	}
}

func TestUpdateRegeneratesScheduleWithSeed(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewPurchaseService(db)

	created, err := service.Create(CreatePurchaseDTO{
		Name:              "Notebook",
		TotalValue:        6000,
		TotalInstallments: 12,
		PaidInstallments:  5,
		PurchaseDate:      "2024-01-10",
		UserID:            user.ID,
	})
	if err != nil {
		t.Fatalf("erro ao criar a compra: %v", err)
	}

	purchaseID := uuid.MustParse(created.ID)

	// Reduzimos o total de parcelas para 6
	updated, err := service.Update(purchaseID, user.ID, UpdatePurchaseDTO{
		TotalInstallments: intPtr(6),
		InstallmentValue:  floatPtr(1000),
	})
	if err != nil {
		t.Fatalf("erro ao editar a compra: %v", err)
	}

	if updated.TotalInstallments != 6 {
		t.Errorf("total de parcelas: got %d want 6", updated.TotalInstallments)
	}
	// O contador é limitado ao novo total
	if updated.PaidInstallments != 5 {
		t.Errorf("parcelas pagas: got %d want 5", updated.PaidInstallments)
	}

	var installments []models.Installment
	if err := db.Where("purchase_id = ?", purchaseID).Order("number ASC").Find(&installments).Error; err != nil {
		t.Fatalf("erro ao buscar as parcelas: %v", err)
	}
	if len(installments) != 6 {
		t.Fatalf("quantidade de parcelas: got %d want 6", len(installments))
	}

	// As parcelas 1..5 do novo cronograma ficam pagas e a 6 em aberto
	for _, installment := range installments {
		wantPaid := installment.Number <= 5
		if installment.Paid != wantPaid {
			t.Errorf("parcela %d: paid got %v want %v", installment.Number, installment.Paid, wantPaid)
		}
		if !installment.Value.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("parcela %d: valor got %s want 1000", installment.Number, installment.Value)
		}
	}

	assertCounterConsistent(t, db, created.ID)
}

func TestUpdateClampsPaidToNewTotal(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewPurchaseService(db)

	created, err := service.Create(CreatePurchaseDTO{
		Name:              "Sofá",
		TotalValue:        2400,
		TotalInstallments: 12,
		PaidInstallments:  8,
		PurchaseDate:      "2024-01-10",
		UserID:            user.ID,
	})
	if err != nil {
		t.Fatalf("erro ao criar a compra: %v", err)
	}

	updated, err := service.Update(uuid.MustParse(created.ID), user.ID, UpdatePurchaseDTO{
		TotalInstallments: intPtr(6),
	})
	if err != nil {
		t.Fatalf("erro ao editar a compra: %v", err)
	}

	// 8 pagas não cabem em 6 parcelas: o contador é limitado
	if updated.PaidInstallments != 6 {
		t.Errorf("parcelas pagas: got %d want 6", updated.PaidInstallments)
	}
	assertCounterConsistent(t, db, created.ID)
}

func TestUpdateNameKeepsSchedule(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewPurchaseService(db)

	created, err := service.Create(CreatePurchaseDTO{
		Name:              "Celular",
		TotalValue:        3000,
		TotalInstallments: 10,
		PurchaseDate:      "2024-02-01",
		UserID:            user.ID,
	})
	if err != nil {
		t.Fatalf("erro ao criar a compra: %v", err)
	}

	var before []models.Installment
	db.Where("purchase_id = ?", created.ID).Order("number ASC").Find(&before)

	updated, err := service.Update(uuid.MustParse(created.ID), user.ID, UpdatePurchaseDTO{
		Name: strPtr("iPhone 15 Pro"),
	})
	if err != nil {
		t.Fatalf("erro ao editar a compra: %v", err)
	}
	if updated.Name != "iPhone 15 Pro" {
		t.Errorf("nome: got %q want %q", updated.Name, "iPhone 15 Pro")
	}

	// O cronograma não é recriado quando só o nome muda
	var after []models.Installment
	db.Where("purchase_id = ?", created.ID).Order("number ASC").Find(&after)
	if len(before) != len(after) {
		t.Fatalf("quantidade de parcelas mudou: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID {
			t.Errorf("parcela %d foi recriada", before[i].Number)
		}
	}
}

func TestUpdateInvalidDateIsValidationError(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewPurchaseService(db)

	created, err := service.Create(CreatePurchaseDTO{
		Name:              "Cama",
		TotalValue:        1800,
		TotalInstallments: 6,
		PurchaseDate:      "2024-03-01",
		UserID:            user.ID,
	})
	if err != nil {
		t.Fatalf("erro ao criar a compra: %v", err)
	}

	_, err = service.Update(uuid.MustParse(created.ID), user.ID, UpdatePurchaseDTO{
		PurchaseDate: strPtr("03/2024"),
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("erro não identificado como validação: %v", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewPurchaseService(db)

	_, err := service.Update(uuid.New(), user.ID, UpdatePurchaseDTO{Name: strPtr("X")})
	if !errors.Is(err, ErrPurchaseNotFound) {
		t.Errorf("erro: got %v want %v", err, ErrPurchaseNotFound)
	}
}

func TestDeleteRemovesInstallments(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewPurchaseService(db)

	created, err := service.Create(CreatePurchaseDTO{
		Name:              "Mesa",
		TotalValue:        900,
		TotalInstallments: 3,
		PurchaseDate:      "2024-05-01",
		UserID:            user.ID,
	})
	if err != nil {
		t.Fatalf("erro ao criar a compra: %v", err)
	}

	if err := service.Delete(uuid.MustParse(created.ID), user.ID); err != nil {
		t.Fatalf("erro ao remover a compra: %v", err)
	}

	var purchases, installments int64
	db.Model(&models.Purchase{}).Count(&purchases)
	db.Model(&models.Installment{}).Count(&installments)
	if purchases != 0 || installments != 0 {
		t.Errorf("registros remanescentes: %d compras, %d parcelas", purchases, installments)
	}
}

func TestDeleteMissingPurchaseIsNoop(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewPurchaseService(db)

	// Remover uma compra inexistente não é erro
	if err := service.Delete(uuid.New(), user.ID); err != nil {
		t.Errorf("esperava sucesso, got %v", err)
	}
}

func TestListOrdersByPurchaseDateDesc(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewPurchaseService(db)

	dates := []string{"2023-08-20", "2023-11-05", "2023-10-15"}
	names := []string{"Geladeira", "iPhone", "Smart TV"}
	for i := range dates {
		if _, err := service.Create(CreatePurchaseDTO{
			Name:              names[i],
			TotalValue:        1000,
			TotalInstallments: 10,
			PurchaseDate:      dates[i],
			UserID:            user.ID,
		}); err != nil {
			t.Fatalf("erro ao criar a compra %s: %v", names[i], err)
		}
	}

	purchases, err := service.List(user.ID)
	if err != nil {
		t.Fatalf("erro ao listar as compras: %v", err)
	}

	wantOrder := []string{"iPhone", "Smart TV", "Geladeira"}
	if len(purchases) != len(wantOrder) {
		t.Fatalf("quantidade de compras: got %d want %d", len(purchases), len(wantOrder))
	}
	for i, want := range wantOrder {
		if purchases[i].Name != want {
			t.Errorf("posição %d: got %q want %q", i, purchases[i].Name, want)
		}
	}
}

func TestListScopedToUser(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	service := NewPurchaseService(db)

	other := &models.User{Name: "João Souza", Email: "joao@example.com", Password: "hash"}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("erro ao criar o segundo usuário: %v", err)
	}

	if _, err := service.Create(CreatePurchaseDTO{
		Name:              "Bicicleta",
		TotalValue:        1500,
		TotalInstallments: 5,
		PurchaseDate:      "2024-04-01",
		UserID:            user.ID,
	}); err != nil {
		t.Fatalf("erro ao criar a compra: %v", err)
	}

	purchases, err := service.List(other.ID)
	if err != nil {
		t.Fatalf("erro ao listar as compras: %v", err)
	}
	if len(purchases) != 0 {
		t.Errorf("compras de outro usuário vazaram: %d", len(purchases))
	}
}
