// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"regexp"
	"unicode/utf8"
)

const (
	// MinCardLength минимальная длина номера карты в символах.
	MinCardLength = 13
	// MaxCardLength максимальная длина номера карты в символах.
	MaxCardLength = 16
)

var (
	// ErrCardTooShort возвращается, если номер карты короче MinCardLength.
	ErrCardTooShort = errors.New("credit card number is too short")
	// ErrCardTooLong возвращается, если номер карты длиннее MaxCardLength.
	ErrCardTooLong = errors.New("credit card number is too long")
)

// Visa: 13 или 16 цифр, первая цифра 4.
var visaPattern = regexp.MustCompile(`^4[0-9]{12}(?:[0-9]{3})?$`)

// IsVisaNumber проверяет, что строка целиком является номером карты Visa.
func IsVisaNumber(number string) bool {
	return visaPattern.MatchString(number)
}

// LastFourDigits возвращает последние четыре символа номера карты.
// Номер вне диапазона MinCardLength..MaxCardLength отклоняется.
func LastFourDigits(card string) (string, error) {
	n := utf8.RuneCountInString(card)
	if n < MinCardLength {
		return "", ErrCardTooShort
	}
	if n > MaxCardLength {
		return "", ErrCardTooLong
	}

	runes := []rune(card)
	return string(runes[len(runes)-4:]), nil
}
