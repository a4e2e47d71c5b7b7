package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config representa a configuração da aplicação
type Config struct {
	Server struct {
		Port int
	}
	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
	}
	JWT struct {
		SecretKey string
		ExpiresIn int // em horas
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Reminder struct {
		Enabled       bool
		IntervalHours int // intervalo entre verificações de parcelas a vencer
		WindowDays    int // quantos dias antes do vencimento avisar
	}
}

// NewConfig cria uma nova instância de configuração a partir das variáveis de ambiente
func NewConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	// Valores padrão
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "parcelas_db")
	v.SetDefault("JWT_SECRET_KEY", "your-secret-key-here")
	v.SetDefault("JWT_EXPIRES_IN", 24)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "your-email@gmail.com")
	v.SetDefault("SMTP_PASSWORD", "your-app-password")
	v.SetDefault("SMTP_FROM", "your-email@gmail.com")
	v.SetDefault("REMINDER_ENABLED", true)
	v.SetDefault("REMINDER_INTERVAL_HOURS", 12)
	v.SetDefault("REMINDER_WINDOW_DAYS", 3)

	cfg := &Config{}

	// Configurações do servidor
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("porta do servidor inválida: %d", cfg.Server.Port)
	}

	// Configurações do banco de dados
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetInt("DB_PORT")
	if cfg.DB.Port <= 0 {
		return nil, fmt.Errorf("porta do banco de dados inválida: %d", cfg.DB.Port)
	}
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.DBName = v.GetString("DB_NAME")

	// Configurações do JWT
	cfg.JWT.SecretKey = v.GetString("JWT_SECRET_KEY")
	cfg.JWT.ExpiresIn = v.GetInt("JWT_EXPIRES_IN")
	if cfg.JWT.ExpiresIn <= 0 {
		return nil, fmt.Errorf("tempo de vida do JWT inválido: %d", cfg.JWT.ExpiresIn)
	}

	// Configurações do SMTP
	cfg.SMTP.Host = v.GetString("SMTP_HOST")
	cfg.SMTP.Port = v.GetInt("SMTP_PORT")
	cfg.SMTP.Username = v.GetString("SMTP_USERNAME")
	cfg.SMTP.Password = v.GetString("SMTP_PASSWORD")
	cfg.SMTP.From = v.GetString("SMTP_FROM")

	// Configurações dos lembretes de vencimento
	cfg.Reminder.Enabled = v.GetBool("REMINDER_ENABLED")
	cfg.Reminder.IntervalHours = v.GetInt("REMINDER_INTERVAL_HOURS")
	cfg.Reminder.WindowDays = v.GetInt("REMINDER_WINDOW_DAYS")

	return cfg, nil
}
