// 文件: pkg/report/repository.go
// 报告存储接口
//
// 业务层只依赖接口；GORM 实现负责落库，缓存实现以装饰器方式叠加

package report

import "context"

// Repository 报告存储接口
type Repository interface {
	// Create 保存报告，成功后回填 ID 和 CreatedAt
	Create(ctx context.Context, r *ScenarioReport) error

	// GetByID 不存在返回 ErrReportNotFound
	GetByID(ctx context.Context, id uint64) (*ScenarioReport, error)

	// ListRecent 按创建时间倒序返回最近 limit 条
	ListRecent(ctx context.Context, limit int) ([]*ScenarioReport, error)
}
