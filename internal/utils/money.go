package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatUSD renders an integer amount of cents as "$1,234.56".
func FormatUSD(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%s.%02d", sign, formatThousand(cents/100), cents%100)
}

// FormatMiles keeps consistent distance formatting for emails and receipts.
func FormatMiles(miles float64) string {
	return fmt.Sprintf("%.1f mi", miles)
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
