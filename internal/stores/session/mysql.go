package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Blob is one persisted blob row
type Blob struct {
	BlobKey   string `gorm:"column:blob_key;primaryKey;size:191"`
	Data      []byte `gorm:"column:data;type:longblob;not null"`
	UpdatedAt time.Time
}

func (Blob) TableName() string {
	return "civicchat_blobs"
}

// MySQLBackend handles blob persistence using GORM
type MySQLBackend struct {
	db *gorm.DB
}

// DSN builds the MySQL connection string for the store configuration
func DSN(cfg config.MySQLConfig) string {
	dbConfig := mysql.NewConfig()
	dbConfig.User = cfg.User
	dbConfig.Passwd = cfg.Password
	dbConfig.Net = "tcp"
	dbConfig.Addr = fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	dbConfig.DBName = cfg.Database
	dbConfig.ParseTime = true
	return dbConfig.FormatDSN()
}

func NewMySQLBackend(cfg config.MySQLConfig) (*MySQLBackend, error) {
	if cfg.Database == "" {
		return nil, errors.New("mysql store requires a database name")
	}

	db, err := gorm.Open(gormmysql.Open(DSN(cfg)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&Blob{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return &MySQLBackend{db: db}, nil
}

func (b *MySQLBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var blob Blob
	result := b.db.WithContext(ctx).First(&blob, "blob_key = ?", key)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, result.Error)
	}
	return blob.Data, nil
}

func (b *MySQLBackend) Put(ctx context.Context, key string, data []byte) error {
	blob := Blob{BlobKey: key, Data: data, UpdatedAt: time.Now().UTC()}
	result := b.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&blob)
	if result.Error != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, result.Error)
	}
	return nil
}

func (b *MySQLBackend) Delete(ctx context.Context, key string) error {
	if err := b.db.WithContext(ctx).Where("blob_key = ?", key).Delete(&Blob{}).Error; err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection
func (b *MySQLBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}
