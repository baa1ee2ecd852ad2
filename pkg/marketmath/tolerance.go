package marketmath

import "github.com/shopspring/decimal"

// WithinRelTolerance 判断 value 是否落在 reference 的相对容差带内：
//
//	|value - reference| <= reference * tolerance
//
// reference 作为基准（对账时取「期望价格」），tolerance 为小数形式（0.005 = 0.5%）。
// reference <= 0 时只接受完全相等，避免除零语义上的歧义。
func WithinRelTolerance(value, reference, tolerance decimal.Decimal) bool {
	if !reference.IsPositive() {
		return value.Equal(reference)
	}
	diff := value.Sub(reference).Abs()
	return diff.LessThanOrEqual(reference.Mul(tolerance))
}
