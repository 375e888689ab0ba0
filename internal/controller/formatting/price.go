// Package formatting готовит тексты сообщений ботов.
package formatting

import "fmt"

// FormatPrice форматирует цену из копеек в рубли
func FormatPrice[T ~int | ~int64](kopecks T) string {
	price := float64(kopecks) / 100
	return fmt.Sprintf("%.2f ₽", price)
}

// FormatPriceShort форматирует цену без копеек если они равны 0
func FormatPriceShort[T ~int | ~int64](kopecks T) string {
	price := float64(kopecks) / 100
	if kopecks%100 == 0 {
		return fmt.Sprintf("%.0f ₽", price)
	}
	return fmt.Sprintf("%.2f ₽", price)
}
