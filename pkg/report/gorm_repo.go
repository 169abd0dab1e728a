// 文件: pkg/report/gorm_repo.go
// 报告 GORM 存储实现
//
// 生产环境用 MySQL，测试用内存 sqlite，两者共用这一份实现

package report

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 确保实现了接口
var _ Repository = (*GormRepository)(nil)

const maxListLimit = 500

// GormRepository GORM 实现
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository 创建存储
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// OpenMySQL 打开 MySQL 连接
func OpenMySQL(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// AutoMigrate 建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ScenarioReport{})
}

// Create 保存报告
func (r *GormRepository) Create(ctx context.Context, rep *ScenarioReport) error {
	if rep.CreatedAt == 0 {
		rep.CreatedAt = time.Now().UnixMilli()
	}
	return r.db.WithContext(ctx).Create(rep).Error
}

// GetByID 根据 ID 查询
func (r *GormRepository) GetByID(ctx context.Context, id uint64) (*ScenarioReport, error) {
	var rep ScenarioReport
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&rep).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &rep, nil
}

// ListRecent 最近的报告
func (r *GormRepository) ListRecent(ctx context.Context, limit int) ([]*ScenarioReport, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	var reps []*ScenarioReport
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&reps).Error
	return reps, err
}
