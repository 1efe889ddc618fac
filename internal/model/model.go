// Package model содержит доменные сущности сервиса оформления заказа.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User представляет профиль покупателя, полученный из витрины.
type User struct {
	UserID    int64  `json:"userId"`
	GlobalID  int64  `json:"globalId"`
	Email     string `json:"email"`
	UserType  string `json:"userType"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	City      string `json:"city"`
	Street    string `json:"street"`
}

// Order описывает данные заказа, отправляемые в сервис заказов.
// CreditCard содержит только последние четыре символа номера карты.
type Order struct {
	GlobalID       int64           `json:"globalId"`
	CartID         int64           `json:"cartId"`
	FinalPrice     decimal.Decimal `json:"finalPrice"`
	CreditCard     string          `json:"creditCard"`
	ShippingCity   string          `json:"shippingCity"`
	ShippingStreet string          `json:"shippingStreet"`
	ShippingDate   string          `json:"shippingDate"`
	OrderDate      string          `json:"orderDate"`
}

// CartItem описывает позицию корзины.
type CartItem struct {
	ProductID  int64           `json:"productId"`
	Name       string          `json:"name"`
	Quantity   int64           `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// Cart содержит идентификатор текущей корзины, её итоговую стоимость и позиции.
type Cart struct {
	CartID     int64           `json:"cartId"`
	FinalPrice decimal.Decimal `json:"finalPrice"`
	Items      []CartItem      `json:"items"`
}

// Session хранит токен витрины и сведения о текущем пользователе.
type Session struct {
	ID        string
	Token     string
	UserID    int64
	FirstName string
	UserType  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Receipt содержит PDF-файл чека, ожидающий скачивания.
type Receipt struct {
	ID        string
	Filename  string
	Content   []byte
	CreatedAt time.Time
}

// NotificationLevel описывает тип уведомления для пользователя.
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification представляет кратковременное сообщение, показываемое пользователю.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}
