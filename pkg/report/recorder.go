package report

import (
	"time"

	"kibo-catalog-sync/pkg/sync"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// SyncRun 一次同步运行的审计记录
type SyncRun struct {
	ID         int64      `gorm:"primaryKey;autoIncrement"`
	Kind       string     `gorm:"size:32;index"`
	Status     string     `gorm:"size:16"` // running / finished / failed
	Processed  int        `gorm:""`
	Saved      int        `gorm:""`
	Skipped    int        `gorm:""`
	Failed     int        `gorm:""`
	Total      int        `gorm:""`
	LastError  string     `gorm:"size:1024"`
	StartedAt  time.Time  `gorm:""`
	FinishedAt *time.Time `gorm:""`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}

// SyncFailure 运行中单条失败的审计记录
type SyncFailure struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	RunID       int64     `gorm:"index"`
	ProductCode string    `gorm:"size:64;index"`
	Stage       string    `gorm:"size:16"` // process / write
	Reason      string    `gorm:"size:1024"`
	CreatedAt   time.Time `gorm:""`
}

func (SyncFailure) TableName() string {
	return "sync_failures"
}

// GormRecorder 基于关系库的运行审计记录
type GormRecorder struct {
	db *gorm.DB
}

// NewGormRecorder 创建审计记录实例并建表
func NewGormRecorder(db *gorm.DB) (*GormRecorder, error) {
	if db == nil {
		return nil, errors.New("审计库尚未初始化")
	}
	if err := db.AutoMigrate(&SyncRun{}, &SyncFailure{}); err != nil {
		return nil, errors.Wrap(err, "审计库建表失败")
	}
	return &GormRecorder{db: db}, nil
}

// RunStarted 登记一次运行，返回运行ID
func (r *GormRecorder) RunStarted(kind string) (int64, error) {
	run := &SyncRun{
		Kind:      kind,
		Status:    "running",
		StartedAt: time.Now(),
	}
	if err := r.db.Create(run).Error; err != nil {
		return 0, errors.Wrap(err, "登记运行记录失败")
	}
	return run.ID, nil
}

// ProductFailed 登记一条商品处理失败
func (r *GormRecorder) ProductFailed(runID int64, productCode string, reason string) error {
	return r.recordFailure(runID, productCode, "process", reason)
}

// WriteFailed 登记一条回写失败
func (r *GormRecorder) WriteFailed(runID int64, productCode string, reason string) error {
	return r.recordFailure(runID, productCode, "write", reason)
}

func (r *GormRecorder) recordFailure(runID int64, productCode, stage, reason string) error {
	failure := &SyncFailure{
		RunID:       runID,
		ProductCode: productCode,
		Stage:       stage,
		Reason:      reason,
		CreatedAt:   time.Now(),
	}
	if err := r.db.Create(failure).Error; err != nil {
		return errors.Wrap(err, "登记失败记录失败")
	}
	return nil
}

// RunFinished 收尾运行记录，落盘最终计数
func (r *GormRecorder) RunFinished(runID int64, status *sync.RunStatus) error {
	now := time.Now()
	finalStatus := "finished"
	if status.LastError != "" {
		finalStatus = "failed"
	}
	updates := map[string]interface{}{
		"status":      finalStatus,
		"processed":   status.Processed,
		"saved":       status.Saved,
		"skipped":     status.Skipped,
		"failed":      status.Failed,
		"total":       status.Total,
		"last_error":  status.LastError,
		"finished_at": &now,
	}
	if err := r.db.Model(&SyncRun{}).Where("id = ?", runID).Updates(updates).Error; err != nil {
		return errors.Wrap(err, "收尾运行记录失败")
	}
	return nil
}

// RecentRuns 最近的运行记录（状态查询接口用）
func (r *GormRecorder) RecentRuns(limit int) ([]*SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []*SyncRun
	if err := r.db.Order("id desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, errors.Wrap(err, "查询运行记录失败")
	}
	return runs, nil
}

// RunFailures 指定运行的失败明细
func (r *GormRecorder) RunFailures(runID int64) ([]*SyncFailure, error) {
	var failures []*SyncFailure
	if err := r.db.Where("run_id = ?", runID).Order("id asc").Find(&failures).Error; err != nil {
		return nil, errors.Wrap(err, "查询失败明细失败")
	}
	return failures, nil
}
