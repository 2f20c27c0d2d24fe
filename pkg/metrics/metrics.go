// Package metrics 定义考勤与加班模块的指标采集接口。
package metrics

import "time"

// Collector 业务指标采集
type Collector interface {
	// RecordClockEvent 记录一次打卡结果，kind=in|out，outcome=ok|rejected|error
	RecordClockEvent(kind, outcome string)
	// RecordSummaryRecompute 记录一次日汇总重建耗时
	RecordSummaryRecompute(d time.Duration)
	// RecordOvertimeUpsert 记录加班条目写入结果，outcome=written|locked_skipped
	RecordOvertimeUpsert(outcome string)
	// RecordRecalculation 记录一次加班批量重算
	RecordRecalculation(d time.Duration, err error)
	// RecordHTTPRequest 记录 HTTP 请求
	RecordHTTPRequest(method, route string, status int, d time.Duration)
}

// Nop 丢弃所有指标，用于测试或关闭指标时
type Nop struct{}

var _ Collector = Nop{}

// NewNop 创建空实现
func NewNop() Nop { return Nop{} }

func (Nop) RecordClockEvent(_, _ string) {}
func (Nop) RecordSummaryRecompute(_ time.Duration) {}
func (Nop) RecordOvertimeUpsert(_ string) {}
func (Nop) RecordRecalculation(_ time.Duration, _ error) {}
func (Nop) RecordHTTPRequest(_, _ string, _ int, _ time.Duration) {}
