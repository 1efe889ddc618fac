// Package checkout реализует логику экрана оформления заказа: загрузку данных,
// проверку формы и отправку заказа с печатью чека и завершением сессии.
package checkout

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/storefront-checkout/internal/model"
	"github.com/mmeshcher/storefront-checkout/internal/receipt"
	"github.com/mmeshcher/storefront-checkout/internal/storefront"
	"github.com/mmeshcher/storefront-checkout/internal/validation"
)

// LoginPath путь экрана входа, на который пользователь попадает после оформления заказа.
const LoginPath = "/login"

const (
	msgOrderSubmitted  = "Your Order Has Been Submitted, Thanks For Shopping At Retails R Us Hoping To See You Again Soon"
	msgCardTooShort    = "Credit Card field Must Contain At Least 13 Characters"
	msgCardTooLong     = "Credit Card field Must Contain At Most 16 Characters"
	msgEnterCardAgain  = "please enter credit card number again"
	msgReceiptNotFound = "could not find document to print"
	msgReceiptFailed   = "could not print receipt"
	msgOrderInProgress = "your order is already being submitted"
)

// Поля формы в порядке вывода уведомлений об ошибках.
var formFields = []string{"globalId", "city", "street", "shippingDate", "creditCard"}

// State описывает состояние формы оформления заказа.
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Storefront описывает удалённые сервисы витрины, с которыми работает экран.
type Storefront interface {
	GetUser(ctx context.Context, token string) (*model.User, error)
	GetCart(ctx context.Context, token string) (*model.Cart, error)
	ListCities(ctx context.Context) ([]string, error)
	SubmitOrder(ctx context.Context, token string, order model.Order) error
}

// ReceiptRenderer формирует PDF-документ чека.
type ReceiptRenderer interface {
	Render(region *receipt.Region) ([]byte, error)
}

// ReceiptStore сохраняет готовый чек до его скачивания.
type ReceiptStore interface {
	SaveReceipt(ctx context.Context, filename string, content []byte) (string, error)
}

// SessionTerminator завершает сессию пользователя.
type SessionTerminator interface {
	Terminate(ctx context.Context, sess *model.Session) error
}

// Screen содержит данные, необходимые для отображения экрана оформления заказа.
type Screen struct {
	User          *model.User          `json:"user,omitempty"`
	Cart          *model.Cart          `json:"cart,omitempty"`
	Cities        []string             `json:"cities"`
	Form          Form                 `json:"form"`
	Notifications []model.Notification `json:"notifications"`
}

// Result описывает итог попытки оформить заказ.
type Result struct {
	State         State
	Notifications []model.Notification
	FieldErrors   validation.FieldErrors
	Form          Form
	ReceiptID     string
	Redirect      string
}

func (r *Result) notify(level model.NotificationLevel, msg string) {
	r.Notifications = append(r.Notifications, model.Notification{Level: level, Message: msg})
}

// Service содержит логику экрана оформления заказа.
type Service struct {
	storefront Storefront
	renderer   ReceiptRenderer
	receipts   ReceiptStore
	sessions   SessionTerminator
	validator  *validation.Validator
	guard      *submissionGuard
	logger     *zap.Logger
	now        func() time.Time
}

// NewService создаёт сервис оформления заказа.
func NewService(sf Storefront, renderer ReceiptRenderer, receipts ReceiptStore, sessions SessionTerminator, logger *zap.Logger) *Service {
	return &Service{
		storefront: sf,
		renderer:   renderer,
		receipts:   receipts,
		sessions:   sessions,
		validator:  validation.New(),
		guard:      newSubmissionGuard(),
		logger:     logger,
		now:        time.Now,
	}
}

// Load загружает профиль пользователя, корзину и список городов.
// Ошибки источников не прерывают загрузку и превращаются в уведомления.
func (s *Service) Load(ctx context.Context, sess *model.Session) *Screen {
	screen := &Screen{Cities: []string{}, Notifications: []model.Notification{}}

	var userErr, cartErr, citiesErr error

	var g errgroup.Group
	g.Go(func() error {
		screen.User, userErr = s.storefront.GetUser(ctx, sess.Token)
		return nil
	})
	g.Go(func() error {
		screen.Cart, cartErr = s.storefront.GetCart(ctx, sess.Token)
		return nil
	})
	g.Go(func() error {
		cities, err := s.storefront.ListCities(ctx)
		if err == nil && cities != nil {
			screen.Cities = cities
		}
		citiesErr = err
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{userErr, cartErr, citiesErr} {
		if err == nil {
			continue
		}
		s.logger.Warn("load checkout screen", zap.Error(err), zap.Int64("userID", sess.UserID))
		screen.Notifications = append(screen.Notifications, model.Notification{
			Level:   model.NotificationError,
			Message: storefront.Message(err),
		})
	}

	return screen
}

// Cities возвращает список городов доставки.
func (s *Service) Cities(ctx context.Context) ([]string, error) {
	return s.storefront.ListCities(ctx)
}

// SearchCart возвращает позиции корзины, название которых содержит строку поиска.
func (s *Service) SearchCart(ctx context.Context, sess *model.Session, query string) ([]model.CartItem, error) {
	cart, err := s.storefront.GetCart(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	return receipt.FilterItems(cart.Items, query), nil
}

// Validate проверяет форму и возвращает ошибки по полям.
func (s *Service) Validate(form Form) validation.FieldErrors {
	return s.validator.Check(form)
}

// PlaceOrder оформляет заказ по данным формы.
//
// При успехе по порядку: уведомление, печать чека, очистка формы, завершение
// сессии и переход на экран входа. При отказе сервиса заказов форма остаётся
// без изменений, а текст ошибки сервера передаётся пользователю как есть.
func (s *Service) PlaceOrder(ctx context.Context, sess *model.Session, form Form) *Result {
	res := &Result{State: StateEditing, Form: form, FieldErrors: validation.FieldErrors{}}

	if !s.guard.acquire(sess.ID) {
		res.notify(model.NotificationError, msgOrderInProgress)
		ordersTotal.WithLabelValues(orderResultDuplicate).Inc()
		return res
	}
	defer s.guard.release(sess.ID)

	lastFour, err := validation.LastFourDigits(form.CreditCard)
	if err != nil {
		if errors.Is(err, validation.ErrCardTooLong) {
			res.notify(model.NotificationError, msgCardTooLong)
		} else {
			res.notify(model.NotificationError, msgCardTooShort)
		}
		res.notify(model.NotificationError, msgEnterCardAgain)
		ordersTotal.WithLabelValues(orderResultRejected).Inc()
		return res
	}

	if fieldErrs := s.validator.Check(form); len(fieldErrs) > 0 {
		res.FieldErrors = fieldErrs
		for _, f := range formFields {
			if msg, ok := fieldErrs[f]; ok {
				res.notify(model.NotificationError, msg)
			}
		}
		ordersTotal.WithLabelValues(orderResultRejected).Inc()
		return res
	}

	cart, err := s.storefront.GetCart(ctx, sess.Token)
	if err != nil {
		s.logger.Warn("get cart for order", zap.Error(err), zap.Int64("userID", sess.UserID))
		res.State = StateFailed
		res.notify(model.NotificationError, storefront.Message(err))
		ordersTotal.WithLabelValues(orderResultFailed).Inc()
		return res
	}

	order := model.Order{
		GlobalID:       form.globalID(),
		CartID:         cart.CartID,
		FinalPrice:     cart.FinalPrice,
		CreditCard:     lastFour,
		ShippingCity:   form.City,
		ShippingStreet: form.Street,
		ShippingDate:   form.ShippingDate,
		OrderDate:      OrderDate(s.now()),
	}

	res.State = StateSubmitting
	if err := s.storefront.SubmitOrder(ctx, sess.Token, order); err != nil {
		s.logger.Warn("submit order", zap.Error(err), zap.Int64("userID", sess.UserID), zap.Int64("cartID", order.CartID))
		res.State = StateFailed
		res.notify(model.NotificationError, storefront.Message(err))
		ordersTotal.WithLabelValues(orderResultFailed).Inc()
		return res
	}

	res.State = StateSuccess
	ordersTotal.WithLabelValues(orderResultSuccess).Inc()

	// Заказ уже принят витриной: чек и завершение сессии не должны зависеть от отключения клиента.
	ctx = context.WithoutCancel(ctx)
	res.notify(model.NotificationSuccess, msgOrderSubmitted)

	s.printReceipt(ctx, res, receipt.NewRegion(sess.FirstName, order, cart))

	res.Form.Reset()

	if err := s.sessions.Terminate(ctx, sess); err != nil {
		s.logger.Error("terminate session after order", zap.Error(err), zap.String("sessionID", sess.ID))
	}
	res.Redirect = LoginPath

	return res
}

func (s *Service) printReceipt(ctx context.Context, res *Result, region *receipt.Region) {
	pdf, err := s.renderer.Render(region)
	if err != nil {
		if errors.Is(err, receipt.ErrRegionNotFound) {
			res.notify(model.NotificationError, msgReceiptNotFound)
			return
		}
		s.logger.Error("render receipt", zap.Error(err))
		res.notify(model.NotificationError, msgReceiptFailed)
		return
	}

	id, err := s.receipts.SaveReceipt(ctx, receipt.Filename, pdf)
	if err != nil {
		s.logger.Error("save receipt", zap.Error(err))
		res.notify(model.NotificationError, msgReceiptFailed)
		return
	}

	res.ReceiptID = id
}
