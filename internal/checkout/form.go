package checkout

import (
	"strconv"
	"time"
)

// Form содержит значения полей формы оформления заказа.
type Form struct {
	GlobalID     string `json:"globalId" label:"Global ID" validate:"required,len=9,number"`
	City         string `json:"city" label:"City" validate:"required"`
	Street       string `json:"street" label:"Street" validate:"required"`
	ShippingDate string `json:"shippingDate" label:"Shipping Date" validate:"required,datetime=2006-01-02"`
	CreditCard   string `json:"creditCard" label:"Credit Card" validate:"required,min=13,max=16,visa"`
}

// Reset возвращает все поля формы к пустым значениям.
func (f *Form) Reset() {
	*f = Form{}
}

// globalID возвращает числовое значение глобального идентификатора.
// Вызывается только для формы, прошедшей правила len=9 и number: девять цифр всегда помещаются в int64.
func (f Form) globalID() int64 {
	id, _ := strconv.ParseInt(f.GlobalID, 10, 64)
	return id
}

// OrderDate возвращает дату заказа в формате YYYY-MM-DD.
func OrderDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
