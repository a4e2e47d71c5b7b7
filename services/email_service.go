package services

import (
	"fmt"
	"time"

	"parcelas/config"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// EmailService fornece métodos para envio de email
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService cria uma nova instância de EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
	}
}

// SendEmail envia um email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar o email: %v", err)
	}

	return nil
}

// SendInstallmentReminder envia um lembrete de parcela a vencer
func (s *EmailService) SendInstallmentReminder(to, purchaseName string, number, total int, value decimal.Decimal, dueDate time.Time) error {
	subject := "Lembrete: parcela vencendo"
	body := fmt.Sprintf(`
		<h2>Parcela vencendo</h2>
		<p>Compra: %s</p>
		<p>Parcela: %d de %d</p>
		<p>Valor: R$ %s</p>
		<p>Vencimento: %s</p>
	`, purchaseName, number, total, value.StringFixed(2), dueDate.Format("02/01/2006"))

	return s.SendEmail(to, subject, body)
}

// SendPurchasePaidNotification avisa que todas as parcelas de uma compra foram pagas
func (s *EmailService) SendPurchasePaidNotification(to, purchaseName string) error {
	subject := "Parabéns! Compra quitada"
	body := fmt.Sprintf(`
		<h2>Parabéns!</h2>
		<p>Todas as parcelas da compra <b>%s</b> foram pagas.</p>
	`, purchaseName)

	return s.SendEmail(to, subject, body)
}
