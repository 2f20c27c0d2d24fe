package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lucius010/OptiTrack/internal/model"
)

var secondsPerHour = decimal.NewFromInt(3600)

// hoursOf 时长换算为小时（不舍入）
func hoursOf(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(secondsPerHour)
}

// ComputeEarnings 按计薪方式计算一段工作时长的收入，保留两位小数（四舍五入，远离零）
//
//   - HOURLY：小时数 × 时薪
//   - DAILY：满 1 小时计一天日薪，否则为 0
//   - MONTHLY 及未知类型：0，月薪不按日计入
func ComputeEarnings(duration time.Duration, payType string, payRate decimal.Decimal) decimal.Decimal {
	switch payType {
	case model.PayTypeHourly:
		return hoursOf(duration).Mul(payRate).Round(2)
	case model.PayTypeDaily:
		if duration >= time.Hour {
			return payRate.Round(2)
		}
		return decimal.Zero
	default:
		return decimal.Zero
	}
}
