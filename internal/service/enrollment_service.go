package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"coursecms/config"
	"coursecms/internal/domain"
	"coursecms/internal/models"
	"coursecms/internal/repository"
	"coursecms/pkg/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Outcome describes what a settlement callback did to its order.
type Outcome string

const (
	OutcomeEnrolled         Outcome = "enrolled"
	OutcomeFailed           Outcome = "payment_failed"
	OutcomeAlreadyFinalized Outcome = "already_finalized"
)

// Checkout is everything the client needs to open the payment page. It never
// carries a secret.
type Checkout struct {
	OrderID         uint            `json:"order_id"`
	GatewayOrderID  string          `json:"gateway_order_id"`
	ProviderOrderID string          `json:"provider_order_id"`
	PublicKey       string          `json:"public_key"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	DisplayName     string          `json:"display_name"`
	DisplayEmail    string          `json:"display_email"`
	Params          payment.Params  `json:"params"`
}

type VerifyResult struct {
	Outcome           Outcome `json:"outcome"`
	OrderID           uint    `json:"order_id"`
	GatewayOrderID    string  `json:"gateway_order_id"`
	CourseID          uint    `json:"course_id"`
	Status            string  `json:"status"`
	EnrollmentID      uint    `json:"enrollment_id,omitempty"`
	DuplicatePurchase bool    `json:"duplicate_purchase,omitempty"`
}

// CallbackMeta identifies the sender of a callback for the journal and audit trail.
type CallbackMeta struct {
	IP        string
	UserAgent string
}

type ReconcileReport struct {
	Scanned    int `json:"scanned"`
	Repaired   int `json:"repaired"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

type EnrollmentService struct {
	db        *gorm.DB
	gateway   payment.Gateway
	signer    *payment.Signer
	publicKey string
	currency  string
	notifier  *NotificationService
	now       func() time.Time
}

func NewEnrollmentService(db *gorm.DB, gateway payment.Gateway, cfg *config.PaymentConfig, notifier *NotificationService) *EnrollmentService {
	return &EnrollmentService{
		db:      db,
		gateway: gateway,
		signer: &payment.Signer{
			MerchantID:     cfg.MerchantID,
			MerchantKey:    cfg.MerchantKey,
			CallbackURL:    cfg.CallbackURL,
			ChannelID:      cfg.ChannelID,
			Website:        cfg.Website,
			IndustryTypeID: cfg.IndustryTypeID,
		},
		publicKey: cfg.KeyID,
		currency:  cfg.Currency,
		notifier:  notifier,
		now:       time.Now,
	}
}

func newGatewayOrderID(userID uint, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%d_%d_%s", domain.OrderIDPrefix, now.UnixMilli(), userID, suffix)
}

func checkAmount(amount, price decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: amount has more than two decimals", ErrValidation)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: course is not available for purchase", ErrValidation)
	}
	if !amount.Equal(price) {
		return fmt.Errorf("%w: amount does not match course price", ErrValidation)
	}
	return nil
}

// Initiate records a PENDING order and registers it with the gateway inside
// one transaction, so a gateway failure leaves no local order behind.
func (s *EnrollmentService) Initiate(ctx context.Context, userID, courseID uint, amount decimal.Decimal) (*Checkout, error) {
	user, err := repository.NewUserRepository(s.db).GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	course, err := repository.NewCourseRepository(s.db).GetByID(courseID)
	if err != nil {
		return nil, mapCourseErr(err)
	}
	enrolled, err := repository.NewEnrollmentRepository(s.db).Exists(userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}
	if err := checkAmount(amount, course.Price); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:         userID,
		CourseID:       courseID,
		Amount:         amount,
		Currency:       s.currency,
		GatewayOrderID: newGatewayOrderID(userID, s.now()),
		Status:         domain.OrderPending,
	}
	params, err := s.signer.BuildOutboundParams(payment.OutboundOrder{
		OrderID:    order.GatewayOrderID,
		CustomerID: userID,
		CourseID:   courseID,
		Amount:     amount,
		Currency:   s.currency,
	})
	if err != nil {
		log.Printf("[payment] checkout params for %s: %v", order.GatewayOrderID, err)
		return nil, err
	}
	var stepErr error
	var providerOrderID string
	registered := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := repository.NewOrderRepository(tx)
		if err := orders.Create(order); err != nil {
			stepErr = err
			return err
		}
		resp, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
			Receipt:  order.GatewayOrderID,
			Amount:   amount,
			Currency: s.currency,
			Notes: map[string]string{
				"user_id":   fmt.Sprint(userID),
				"course_id": fmt.Sprint(courseID),
			},
		})
		if err != nil {
			log.Printf("[payment] create order %s: %v", order.GatewayOrderID, err)
			stepErr = fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
			return stepErr
		}
		registered = true
		providerOrderID = resp.ProviderOrderID
		details, err := json.Marshal(map[string]interface{}{
			"provider":          s.gateway.Name(),
			"provider_order_id": resp.ProviderOrderID,
			"provider_status":   resp.Status,
		})
		if err != nil {
			stepErr = fmt.Errorf("%w: %v", ErrPartialFailure, err)
			return stepErr
		}
		if err := orders.UpdateDetails(order.ID, details); err != nil {
			stepErr = fmt.Errorf("%w: %v", ErrPartialFailure, err)
			return stepErr
		}
		order.SettlementDetails = details
		return nil
	})
	if err != nil {
		if stepErr != nil {
			return nil, stepErr
		}
		if registered {
			log.Printf("[payment] order %s registered with gateway but commit failed: %v", order.GatewayOrderID, err)
			return nil, fmt.Errorf("%w: %v", ErrPartialFailure, err)
		}
		return nil, err
	}
	log.Printf("[payment] order %s pending for user %d course %d amount %s", order.GatewayOrderID, userID, courseID, payment.FormatAmount(amount))
	s.audit(&userID, domain.AuditOrderInitiated, order.GatewayOrderID, CallbackMeta{}, "")

	return &Checkout{
		OrderID:         order.ID,
		GatewayOrderID:  order.GatewayOrderID,
		ProviderOrderID: providerOrderID,
		PublicKey:       s.publicKey,
		Amount:          amount,
		Currency:        s.currency,
		DisplayName:     user.Name,
		DisplayEmail:    user.Email,
		Params:          params,
	}, nil
}

// Verify authenticates a settlement callback and finalizes its order. The
// checksum is checked before anything is read or written for the order.
// Redelivery of a callback for a finalized order is reported as
// OutcomeAlreadyFinalized, never as an error.
func (s *EnrollmentService) Verify(ctx context.Context, params payment.Params, meta CallbackMeta) (*VerifyResult, error) {
	event := s.journal(params, meta)
	if !s.signer.VerifyInboundParams(params) {
		log.Printf("[SECURITY] settlement callback with invalid checksum for order %q from %s", params["ORDER_ID"], meta.IP)
		s.markEvent(event, domain.EventRejected, nil, ErrInvalidSignature.Error())
		s.audit(nil, domain.AuditSignatureRejected, params["ORDER_ID"], meta, "checksum mismatch")
		return nil, ErrInvalidSignature
	}
	cb, err := payment.ParseCallback(params)
	if err != nil {
		s.markEvent(event, domain.EventRejected, nil, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if cb.MerchantID != s.signer.MerchantID {
		log.Printf("[SECURITY] settlement callback for order %s names merchant %q", cb.OrderID, cb.MerchantID)
		s.markEvent(event, domain.EventRejected, nil, "merchant id mismatch")
		s.audit(nil, domain.AuditPayloadMismatch, cb.OrderID, meta, "merchant id mismatch")
		return nil, fmt.Errorf("%w: merchant differs", ErrPayloadMismatch)
	}

	result := &VerifyResult{GatewayOrderID: cb.OrderID}
	var finalized *models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := repository.NewOrderRepository(tx)
		order, err := orders.GetByGatewayOrderID(cb.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		result.OrderID = order.ID
		result.CourseID = order.CourseID
		if order.UserID != cb.CustomerID || order.CourseID != cb.CourseID {
			return fmt.Errorf("%w: customer or course differs", ErrPayloadMismatch)
		}
		if order.Status != domain.OrderPending {
			return s.alreadyFinalized(tx, order, result)
		}

		status := domain.OrderFailed
		if cb.Succeeded() {
			status = domain.OrderSuccess
		}
		if reported, err := decimal.NewFromString(cb.ReportedAmount); err != nil || !reported.Equal(order.Amount) {
			log.Printf("[payment] order %s callback reports amount %q, recorded %s", order.GatewayOrderID, cb.ReportedAmount, payment.FormatAmount(order.Amount))
		}
		details := mergeDetails(order.GatewayOrderID, order.SettlementDetails, settlementFields(cb))
		var txnID *string
		if cb.TxnID != "" {
			t := cb.TxnID
			txnID = &t
		}
		at := s.now()
		n, err := orders.Finalize(order.ID, status, txnID, details, at)
		if err != nil {
			return err
		}
		if n == 0 {
			current, err := orders.GetByID(order.ID)
			if err != nil {
				return err
			}
			return s.alreadyFinalized(tx, current, result)
		}
		order.Status = status
		order.GatewayTxnID = txnID
		order.SettlementDetails = details
		order.FinalizedAt = &at
		result.Status = status
		finalized = order
		if status != domain.OrderSuccess {
			result.Outcome = OutcomeFailed
			return nil
		}
		e, dup, err := ensureEnrollment(tx, order)
		if err != nil {
			return err
		}
		result.Outcome = OutcomeEnrolled
		result.EnrollmentID = e.ID
		result.DuplicatePurchase = dup
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrPayloadMismatch):
			log.Printf("[SECURITY] settlement callback for order %s does not match ledger (cust %d course %d)", cb.OrderID, cb.CustomerID, cb.CourseID)
			s.markEvent(event, domain.EventRejected, orderRef(result.OrderID), err.Error())
			s.audit(nil, domain.AuditPayloadMismatch, cb.OrderID, meta, "customer or course mismatch")
		case errors.Is(err, ErrOrderNotFound):
			log.Printf("[payment] settlement callback for unknown order %s", cb.OrderID)
			s.markEvent(event, domain.EventRejected, nil, err.Error())
		default:
			log.Printf("[payment] finalize order %s: %v", cb.OrderID, err)
			s.markEvent(event, domain.EventReceived, orderRef(result.OrderID), err.Error())
		}
		return nil, err
	}

	if finalized == nil {
		s.markEvent(event, domain.EventIgnored, orderRef(result.OrderID), "")
		log.Printf("[payment] order %s already %s, callback ignored", result.GatewayOrderID, result.Status)
		return result, nil
	}
	s.markEvent(event, domain.EventProcessed, orderRef(finalized.ID), "")
	log.Printf("[payment] order %s finalized %s", finalized.GatewayOrderID, finalized.Status)
	s.audit(&finalized.UserID, domain.AuditOrderFinalized, finalized.GatewayOrderID, meta, finalized.Status)
	if s.notifier != nil {
		title := ""
		if c, err := repository.NewCourseRepository(s.db).GetByID(finalized.CourseID); err == nil {
			title = c.Title
		}
		s.notifier.NotifyOrderFinalized(finalized, title)
	}
	return result, nil
}

func (s *EnrollmentService) alreadyFinalized(tx *gorm.DB, order *models.Order, result *VerifyResult) error {
	result.Outcome = OutcomeAlreadyFinalized
	result.Status = order.Status
	if order.Status != domain.OrderSuccess {
		return nil
	}
	e, dup, err := ensureEnrollment(tx, order)
	if err != nil {
		return err
	}
	result.EnrollmentID = e.ID
	result.DuplicatePurchase = dup
	return nil
}

// ensureEnrollment inserts the enrollment for a SUCCESS order unless it is
// already there. dup is true when the buyer was enrolled through a different
// order, which leaves this order paid but without its own enrollment.
func ensureEnrollment(tx *gorm.DB, order *models.Order) (e *models.Enrollment, dup bool, err error) {
	enrollments := repository.NewEnrollmentRepository(tx)
	e = &models.Enrollment{UserID: order.UserID, CourseID: order.CourseID, OrderID: order.ID}
	created, err := enrollments.CreateIfAbsent(e)
	if err != nil {
		return nil, false, err
	}
	if created {
		return e, false, nil
	}
	existing, err := enrollments.GetByOrderID(order.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	existing, err = enrollments.GetByUserCourse(order.UserID, order.CourseID)
	if err != nil {
		return nil, false, err
	}
	log.Printf("[payment] duplicate purchase: order %s paid but user %d already enrolled in course %d via order %d",
		order.GatewayOrderID, order.UserID, order.CourseID, existing.OrderID)
	return existing, true, nil
}

// RepairMissingEnrollments re-applies the enrollment insert for SUCCESS
// orders that lack one.
func (s *EnrollmentService) RepairMissingEnrollments(ctx context.Context, limit int) (*ReconcileReport, error) {
	orders, err := repository.NewOrderRepository(s.db.WithContext(ctx)).ListSuccessWithoutEnrollment(limit)
	if err != nil {
		return nil, err
	}
	report := &ReconcileReport{Scanned: len(orders)}
	for i := range orders {
		o := &orders[i]
		var dup bool
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			_, dup, err = ensureEnrollment(tx, o)
			return err
		})
		switch {
		case err != nil:
			report.Failed++
			log.Printf("[reconcile] order %s: %v", o.GatewayOrderID, err)
		case dup:
			report.Duplicates++
		default:
			report.Repaired++
			log.Printf("[reconcile] enrollment restored for order %s", o.GatewayOrderID)
			s.audit(&o.UserID, domain.AuditEnrollmentRepair, o.GatewayOrderID, CallbackMeta{}, "")
		}
	}
	return report, nil
}

// ListOrders returns the user's orders newest first.
func (s *EnrollmentService) ListOrders(userID uint) ([]models.Order, error) {
	return repository.NewOrderRepository(s.db).ListByUser(userID)
}

func settlementFields(cb *payment.Callback) map[string]interface{} {
	m := map[string]interface{}{
		"txn_id":          cb.TxnID,
		"gateway_status":  cb.Status,
		"reported_amount": cb.ReportedAmount,
	}
	for k, v := range map[string]string{
		"resp_msg":     cb.RespMsg,
		"payment_mode": cb.PaymentMode,
		"bank_txn_id":  cb.BankTxnID,
		"txn_date":     cb.TxnDate,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// mergeDetails overlays add on the stored settlement details. Details that do
// not parse as an object are kept verbatim under "unparsed_details".
func mergeDetails(gatewayOrderID string, existing datatypes.JSON, add map[string]interface{}) datatypes.JSON {
	m := map[string]interface{}{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &m); err != nil {
			log.Printf("[payment] order %s has unreadable settlement details, keeping raw copy: %v", gatewayOrderID, err)
			m = map[string]interface{}{"unparsed_details": string(existing)}
		}
	}
	for k, v := range add {
		m[k] = v
	}
	b, err := json.Marshal(m)
	if err != nil {
		log.Printf("[payment] order %s encode settlement details: %v", gatewayOrderID, err)
		return existing
	}
	return datatypes.JSON(b)
}

func orderRef(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func (s *EnrollmentService) journal(params payment.Params, meta CallbackMeta) *models.GatewayEvent {
	payload, err := json.Marshal(params)
	if err != nil {
		log.Printf("[payment] encode callback for %q: %v", params["ORDER_ID"], err)
	}
	e := &models.GatewayEvent{
		Provider:       s.gateway.Name(),
		GatewayOrderID: params["ORDER_ID"],
		GatewayTxnID:   params["TXN_ID"],
		Payload:        datatypes.JSON(payload),
		Checksum:       params[payment.ChecksumField],
		Status:         domain.EventReceived,
		IP:             meta.IP,
		ReceivedAt:     s.now(),
	}
	if err := repository.NewGatewayEventRepository(s.db).Create(e); err != nil {
		log.Printf("[payment] journal callback for %q: %v", e.GatewayOrderID, err)
		return nil
	}
	return e
}

func (s *EnrollmentService) markEvent(e *models.GatewayEvent, status string, orderID *uint, errText string) {
	if e == nil {
		return
	}
	if err := repository.NewGatewayEventRepository(s.db).MarkHandled(e.ID, status, orderID, errText); err != nil {
		log.Printf("[payment] update journal event %d: %v", e.ID, err)
	}
}

func (s *EnrollmentService) audit(userID *uint, action, gatewayOrderID string, meta CallbackMeta, metadata string) {
	entry := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "order",
		ResourceID: gatewayOrderID,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		Metadata:   metadata,
	}
	if err := repository.NewAuditLogRepository(s.db).Create(entry); err != nil {
		log.Printf("[payment] audit %s for %s: %v", action, gatewayOrderID, err)
	}
}
