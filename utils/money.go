package utils

import (
	"fmt"
	"strings"
)

// zeroDecimal lists the currencies whose minor unit is the major unit.
var zeroDecimal = map[string]bool{
	"JPY": true,
	"KRW": true,
	"CLP": true,
	"VND": true,
}

// FormatMinorUnits renders an amount in minor units, e.g. 3250 GBP as "32.50 GBP".
func FormatMinorUnits(amount int64, currency string) string {
	currency = strings.ToUpper(currency)
	if zeroDecimal[currency] {
		return fmt.Sprintf("%d %s", amount, currency)
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, currency)
}
