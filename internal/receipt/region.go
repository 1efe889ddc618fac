// Package receipt формирует чек заказа: текстовую область, её растровое
// изображение и PDF-документ формата A4.
package receipt

import (
	"fmt"
	"strings"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

// Filename имя файла, под которым пользователь получает чек.
const Filename = "order-reciept.pdf"

const storeName = "Retails R Us"

// Region описывает печатаемую область чека построчно.
type Region struct {
	Lines []string
}

// NewRegion собирает область чека по данным заказа и корзины.
// Для пустой корзины области чека нет, и функция возвращает nil.
func NewRegion(customer string, order model.Order, cart *model.Cart) *Region {
	if cart == nil || len(cart.Items) == 0 {
		return nil
	}

	lines := []string{
		storeName + " - order receipt",
		"",
		"Customer:      " + customer,
		"Order date:    " + order.OrderDate,
		"Shipping to:   " + order.ShippingCity + ", " + order.ShippingStreet,
		"Shipping date: " + order.ShippingDate,
		"Credit card:   **** **** **** " + order.CreditCard,
		"",
		fmt.Sprintf("%-32s %5s %12s", "Product", "Qty", "Price"),
		strings.Repeat("-", 51),
	}

	for _, it := range cart.Items {
		lines = append(lines, fmt.Sprintf("%-32s %5d %12s", truncate(it.Name, 32), it.Quantity, it.TotalPrice.StringFixed(2)))
	}

	lines = append(lines,
		strings.Repeat("-", 51),
		fmt.Sprintf("%-32s %5s %12s", "Total", "", order.FinalPrice.StringFixed(2)),
	)

	return &Region{Lines: lines}
}

// FilterItems возвращает позиции, название которых содержит query без учёта регистра.
// Пустой запрос возвращает все позиции.
func FilterItems(items []model.CartItem, query string) []model.CartItem {
	q := strings.ToLower(strings.TrimSpace(query))

	res := make([]model.CartItem, 0, len(items))
	for _, it := range items {
		if q == "" || strings.Contains(strings.ToLower(it.Name), q) {
			res = append(res, it)
		}
	}
	return res
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
