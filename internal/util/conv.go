package util

import "math"

// Round2 保留两位小数，分析结果统一用它取整以保证幂等输出
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
