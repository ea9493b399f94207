package services

import (
	"context"
	"coursehub/apperror"
	"coursehub/logger"
	"coursehub/metrics"
	"coursehub/models"
	"coursehub/repository"
	"coursehub/services/events"
	"coursehub/services/payment"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrPaymentPending is the cause of a Payment error for an order the processor has not settled yet.
var ErrPaymentPending = errors.New("payment not settled")

// Intent is the answer to a buy request: what is being bought and how the client pays for it.
type Intent struct {
	Course       models.Course
	Order        *models.Order
	ClientSecret string
	RedirectURL  string
}

type PurchaseService struct {
	courses   *repository.CourseRepository
	purchases *repository.PurchaseRepository
	orders    *repository.OrderRepository
	users     *repository.UserRepository
	processor payment.Processor
	notifier  Notifier
	events    events.Publisher
	currency  string
	now       func() time.Time
}

func NewPurchaseService(
	courses *repository.CourseRepository,
	purchases *repository.PurchaseRepository,
	orders *repository.OrderRepository,
	users *repository.UserRepository,
	processor payment.Processor,
	notifier Notifier,
	publisher events.Publisher,
	currency string,
) *PurchaseService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &PurchaseService{
		courses:   courses,
		purchases: purchases,
		orders:    orders,
		users:     users,
		processor: processor,
		notifier:  notifier,
		events:    publisher,
		currency:  currency,
		now:       time.Now,
	}
}

// Buy opens a payment intent for the course. A learner who already owns the course is
// rejected before the processor is contacted. The intent itself grants nothing.
func (s *PurchaseService) Buy(ctx context.Context, userID, courseID uuid.UUID) (*Intent, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Course not found")
		}
		return nil, apperror.Internal("Failed to load course", err)
	}

	owned, err := s.purchases.Exists(ctx, userID, courseID)
	if err != nil {
		return nil, apperror.Internal("Failed to check purchase", err)
	}
	if owned {
		metrics.PurchaseIntentsTotal.WithLabelValues("duplicate").Inc()
		return nil, apperror.DuplicatePurchase("User has already purchased this course")
	}

	user, err := s.users.FindByID(ctx, userID, models.RoleUser)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Authentication("Account no longer exists!")
		}
		return nil, apperror.Internal("Failed to load account", err)
	}

	orderID := newOrderID()
	auth, err := s.processor.CreateIntent(ctx, payment.IntentRequest{
		OrderID:     orderID,
		Amount:      course.Price,
		Currency:    s.currency,
		CourseID:    course.ID.String(),
		CourseTitle: course.Title,
		Customer: payment.Customer{
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
		},
	})
	if err != nil {
		metrics.PurchaseIntentsTotal.WithLabelValues("failed").Inc()
		if errors.Is(err, apperror.ErrPayment) {
			return nil, err
		}
		return nil, apperror.Payment("Failed to create payment intent", err)
	}

	order := &models.Order{
		ID:           orderID,
		UserID:       userID,
		CourseID:     courseID,
		Amount:       course.Price,
		Currency:     s.currency,
		ClientSecret: auth.ClientSecret,
		RedirectURL:  auth.RedirectURL,
		Status:       models.OrderPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperror.Internal("Failed to record order", err)
	}
	metrics.PurchaseIntentsTotal.WithLabelValues("created").Inc()

	logger.Log.WithFields(logrus.Fields{"orderId": orderID, "userId": userID, "courseId": courseID}).Info("payment intent created")
	return &Intent{
		Course:       course.Public(),
		Order:        order,
		ClientSecret: auth.ClientSecret,
		RedirectURL:  auth.RedirectURL,
	}, nil
}

// Confirm completes the learner's own order once the processor reports it settled.
func (s *PurchaseService) Confirm(ctx context.Context, userID uuid.UUID, orderID string) (*models.Purchase, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperror.NotFound("Order not found")
	}
	return s.settle(ctx, order)
}

// HandleNotification processes a processor callback. The body is only trusted for the order id;
// the status is always read back from the processor.
func (s *PurchaseService) HandleNotification(ctx context.Context, orderID string) (*models.Purchase, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, order)
}

// Purchases lists the courses the learner has bought, newest first.
func (s *PurchaseService) Purchases(ctx context.Context, userID uuid.UUID) ([]models.Course, error) {
	courses, err := s.purchases.CoursesForUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("Failed to list purchases", err)
	}
	return publicCourses(courses), nil
}

// ExpireStale marks intents older than ttl as expired and returns how many were changed.
func (s *PurchaseService) ExpireStale(ctx context.Context, ttl time.Duration) (int64, error) {
	return s.orders.ExpireStale(ctx, s.now().Add(-ttl))
}

func (s *PurchaseService) loadOrder(ctx context.Context, orderID string) (*models.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, apperror.Validation("Validation failed!", map[string]string{"orderId": "Order id is required!"})
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Order not found")
		}
		return nil, apperror.Internal("Failed to load order", err)
	}
	return order, nil
}

// settle turns a settled order into a Purchase. The unique (user, course) index decides
// which order wins when two intents for the same pair both settle. A locally expired order
// is still settled when the processor captured the payment.
func (s *PurchaseService) settle(ctx context.Context, order *models.Order) (*models.Purchase, error) {
	if order.Status == models.OrderPaid {
		return s.existingPurchase(ctx, order)
	}

	status, err := s.processor.Status(ctx, order.ID)
	if err != nil {
		if errors.Is(err, apperror.ErrPayment) {
			return nil, err
		}
		return nil, apperror.Payment("Failed to check payment status", err)
	}
	if !status.Settled {
		if order.Status == models.OrderExpired {
			return nil, apperror.Conflict("Payment intent has expired")
		}
		return nil, apperror.Payment(fmt.Sprintf("Payment not completed (status %s)", status.State), ErrPaymentPending)
	}

	now := s.now()
	purchase := &models.Purchase{UserID: order.UserID, CourseID: order.CourseID, OrderID: order.ID}
	createErr := s.purchases.Create(ctx, purchase)
	if createErr != nil && !errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return nil, apperror.Internal("Failed to record purchase", createErr)
	}

	if _, err := s.orders.MarkPaid(ctx, order.ID, now); err != nil {
		return nil, apperror.Internal("Failed to update order", err)
	}
	if createErr != nil {
		return s.existingPurchase(ctx, order)
	}

	logger.Log.WithFields(logrus.Fields{"orderId": order.ID, "userId": order.UserID, "courseId": order.CourseID}).Info("purchase completed")
	s.events.Publish(ctx, events.Event{Type: events.PurchaseCompleted, Key: order.CourseID.String(), Payload: purchase})
	s.notify(ctx, order)
	return purchase, nil
}

// existingPurchase returns the purchase already recorded for the order's pair. It belongs to
// this order on a repeated settlement, to another order when a second intent settled.
func (s *PurchaseService) existingPurchase(ctx context.Context, order *models.Order) (*models.Purchase, error) {
	purchase, err := s.purchases.Find(ctx, order.UserID, order.CourseID)
	if err != nil {
		return nil, apperror.Internal("Failed to load purchase", err)
	}
	if purchase.OrderID != order.ID {
		logger.Log.WithFields(logrus.Fields{"orderId": order.ID, "purchaseOrderId": purchase.OrderID}).Warn("settled order duplicates an existing purchase")
		return nil, apperror.DuplicatePurchase("User has already purchased this course")
	}
	return purchase, nil
}

func (s *PurchaseService) notify(ctx context.Context, order *models.Order) {
	user, err := s.users.FindByID(ctx, order.UserID, models.RoleUser)
	if err != nil {
		logger.Log.WithField("orderId", order.ID).WithError(err).Warn("receipt skipped, account not found")
		return
	}
	course, err := s.courses.FindByID(ctx, order.CourseID)
	if err != nil {
		logger.Log.WithField("orderId", order.ID).WithError(err).Warn("receipt skipped, course not found")
		return
	}
	if err := s.notifier.PurchaseCompleted(ctx, user, course, order); err != nil {
		logger.Log.WithField("orderId", order.ID).WithError(err).Warn("failed to send receipt")
	}
}

func newOrderID() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
