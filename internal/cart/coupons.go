package cart

import "strings"

// couponTable is the fixed code -> percent mapping honored by ApplyCoupon.
var couponTable = map[string]int{
	"SABOR10":  10,
	"SABORVIP": 15,
}

// LookupCoupon resolves a coupon code case-insensitively.
func LookupCoupon(code string) (Coupon, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	percent, ok := couponTable[normalized]
	if !ok {
		return Coupon{}, false
	}
	return Coupon{Code: normalized, Percent: percent}, true
}
