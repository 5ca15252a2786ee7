package shared

import "time"

// Clock 時間來源
//
// Use Case 透過 Clock 取得「現在」，測試可注入固定時間。
type Clock interface {
	Now() time.Time
}

// SystemClock 系統時鐘
type SystemClock struct{}

// Now 回傳目前時間
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock 固定時間（測試用）
type FixedClock struct {
	T time.Time
}

// Now 回傳固定時間
func (c FixedClock) Now() time.Time {
	return c.T
}
