package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"parcelas/config"
	"parcelas/models"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database representa a conexão com o banco de dados
type Database struct {
	DB *gorm.DB
}

// NewDatabase cria uma nova conexão com o banco de dados e executa as migrações
func NewDatabase(cfg *config.Config) (*Database, error) {
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	return &Database{DB: db}, nil
}

// GetDB retorna a instância do GORM
func (d *Database) GetDB() *gorm.DB {
	return d.DB
}

// Close fecha a conexão com o banco de dados
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Connect estabelece a conexão com o banco de dados e executa as migrações
func Connect(cfg *config.Config) (*gorm.DB, error) {
	// Montamos a string de conexão
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.DBName,
	)

	// Configuramos o logger do GORM
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	// Abrimos a conexão
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("erro ao conectar ao banco de dados: %v", err)
	}

	// Configuramos o pool de conexões
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter o pool de conexões: %v", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Executamos as migrações SQL
	if err := runMigrations(cfg); err != nil {
		return nil, fmt.Errorf("erro ao executar as migrações SQL: %v", err)
	}

	// Executamos a migração automática dos modelos
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("erro na migração automática dos modelos: %v", err)
	}

	return db, nil
}

// runMigrations executa as migrações SQL
func runMigrations(cfg *config.Config) error {
	// Montamos a URL para as migrações
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.DBName,
	)

	// Criamos a instância de migração
	m, err := migrate.New(
		"file://migrations",
		dsn,
	)
	if err != nil {
		return fmt.Errorf("erro ao criar a migração: %v", err)
	}

	// Executamos as migrações
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("erro ao executar as migrações: %v", err)
	}

	return nil
}

// autoMigrate executa a migração automática dos modelos
func autoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Purchase{},
		&models.Installment{},
	)
	if err != nil {
		return fmt.Errorf("erro na migração automática: %v", err)
	}

	return nil
}
