package interfaces

import "context"

// Notifier 告警发送
type Notifier interface {
	Send(ctx context.Context, messages []string) error
}

// RunLock 跨进程的流水线运行锁，同一时刻最多一次运行
type RunLock interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// ChangeDetector 判断数据源是否有新申报
type ChangeDetector interface {
	Changed(ctx context.Context) (bool, error)
}
