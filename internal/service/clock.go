package service

import (
	"time"

	"TickerSync/internal/model"
)

// Clock 统一“当前时间”和“今天”的口径；测试中注入固定时间
type Clock struct {
	Now func() time.Time
	Loc *time.Location
}

// NewClock 使用系统时间，loc 为 nil 时按 UTC
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: time.Now, Loc: loc}
}

// FixedClock 固定时间（测试用）
func FixedClock(t time.Time, loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: func() time.Time { return t }, Loc: loc}
}

// Today loc 时区下的今天（UTC 零点表示）
func (c Clock) Today() time.Time {
	return model.DateOnly(c.Now(), c.Loc)
}
