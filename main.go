package main

import (
	"fmt"
	"log"
	"net/http"

	"parcelas/config"
	"parcelas/controllers"
	"parcelas/database"
	"parcelas/middleware"
	"parcelas/services"

	"github.com/gorilla/mux"
)

// healthHandler responde à verificação de disponibilidade
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fmt.Fprint(w, "ok")
}

// initReminderService inicia o envio periódico de lembretes de vencimento
func initReminderService(db *database.Database, emailService *services.EmailService, cfg *config.Config) {
	if !cfg.Reminder.Enabled {
		return
	}

	reminder := services.NewReminderService(db.DB, emailService, cfg)
	reminder.Start()
	log.Println("Serviço de lembretes de vencimento iniciado")
}

func main() {
	// Inicializamos a configuração
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Erro ao carregar a configuração: %v", err)
	}

	// Inicializamos a conexão com o banco de dados
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Erro ao conectar ao banco de dados: %v", err)
	}

	// Inicializamos o serviço de email
	emailService := services.NewEmailService(cfg)

	// Iniciamos os lembretes de vencimento
	initReminderService(db, emailService, cfg)

	// Criamos o roteador
	router := mux.NewRouter()
	router.Use(middleware.RecoveryMiddleware)
	router.Use(middleware.RateLimitMiddleware)

	// Inicializamos os controllers
	authController := controllers.NewAuthController(db, cfg)
	purchaseController := controllers.NewPurchaseController(db, emailService)

	// Verificação de disponibilidade
	router.HandleFunc("/health", healthHandler).Methods("GET")

	// Rotas públicas de autenticação
	router.HandleFunc("/api/auth/signUp", authController.SignUp).Methods("POST")
	router.HandleFunc("/api/auth/signIn", authController.SignIn).Methods("POST")

	// Rotas protegidas
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(authController.GetJWTKey())))
	protected.Use(middleware.LoggingMiddleware)

	// Rotas de compras parceladas
	protected.HandleFunc("/purchases", purchaseController.CreatePurchase).Methods("POST")
	protected.HandleFunc("/purchases", purchaseController.GetPurchases).Methods("GET")
	protected.HandleFunc("/purchases/summary", purchaseController.GetMonthlySummary).Methods("GET")
	protected.HandleFunc("/purchases/{id}", purchaseController.GetPurchase).Methods("GET")
	protected.HandleFunc("/purchases/{id}", purchaseController.UpdatePurchase).Methods("PUT")
	protected.HandleFunc("/purchases/{id}", purchaseController.DeletePurchase).Methods("DELETE")

	// Rotas de parcelas
	protected.HandleFunc("/purchases/{id}/installments", purchaseController.GetInstallments).Methods("GET")
	protected.HandleFunc("/purchases/{id}/pay", purchaseController.PayNextInstallment).Methods("POST")
	protected.HandleFunc("/purchases/{id}/installments/{number}", purchaseController.SetInstallmentPaid).Methods("PUT")

	// Métricas internas
	protected.HandleFunc("/metrics", purchaseController.GetMetrics).Methods("GET")

	// Iniciamos o servidor
	port := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Servidor iniciado na porta %s", port)
	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatalf("Erro ao iniciar o servidor: %v", err)
	}
}
