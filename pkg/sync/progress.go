package sync

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Progress 同步进度上报接口
type Progress interface {
	Report(processed, total int)
}

// LogProgress 把进度写入日志
type LogProgress struct{}

func (LogProgress) Report(processed, total int) {
	zap.S().Infof("同步进度: %d/%d", processed, total)
}

// RunStatus 一次同步运行的状态快照
type RunStatus struct {
	Running    bool       `json:"running"`
	Kind       string     `json:"kind,omitempty"` // products / categories / sites
	Processed  int        `json:"processed"`
	Saved      int        `json:"saved"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
	Total      int        `json:"total"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
}

// Tracker 跨协程共享的运行状态。所有方法对 nil 接收者安全，
// 未接入状态查询接口的场景可以直接传 nil。
type Tracker struct {
	mu     sync.Mutex
	status RunStatus
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin 标记一次运行开始，清空上一次的计数
func (t *Tracker) Begin(kind string, total int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.status = RunStatus{
		Running:   true,
		Kind:      kind,
		Total:     total,
		StartedAt: &now,
	}
}

// SetTotal 首页取回后补记总数
func (t *Tracker) SetTotal(total int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Total = total
}

func (t *Tracker) IncrProcessed() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Processed++
}

func (t *Tracker) IncrSaved() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Saved++
}

func (t *Tracker) IncrSkipped() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Skipped++
}

func (t *Tracker) IncrFailed() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Failed++
}

// Finish 标记运行结束。err 为 nil 表示正常结束。
func (t *Tracker) Finish(err error) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.status.Running = false
	t.status.FinishedAt = &now
	if err != nil {
		t.status.LastError = err.Error()
	}
}

// Snapshot 返回当前状态的副本
func (t *Tracker) Snapshot() RunStatus {
	if t == nil {
		return RunStatus{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}
