package transfer

import "funds-transfer/pkg/account"

// Order returns the two accounts in canonical lock order: lower id first.
// Every path that holds more than one transaction lock acquires them in this order.
func Order(a, b account.Account) (low, high account.Account) {
	if a.ID() <= b.ID() {
		return a, b
	}
	return b, a
}
