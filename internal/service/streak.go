package service

import "time"

// DateOnly 去掉时分秒，只保留日历日期（UTC）
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextStreak 按日历日推进连续登录天数：
//
//	无记录           -> 1
//	上次 = 昨天      -> streak + 1
//	上次 = 今天      -> 不变（同一天重复调用幂等）
//	断档或未来日期   -> 1
func NextStreak(current int, lastLogin *time.Time, today time.Time) int {
	if lastLogin == nil {
		return 1
	}

	days := int(DateOnly(today).Sub(DateOnly(*lastLogin)).Hours() / 24)

	switch days {
	case 0:
		if current < 1 {
			return 1
		}
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}
