package service

import (
	"encoding/json"
	"fmt"
	"log"

	"coursecms/internal/domain"
	"coursecms/internal/models"
	"coursecms/internal/repository"
)

// Pusher delivers live events to a user's open connections.
type Pusher interface {
	BroadcastToUser(userID uint, payload interface{})
}

type NotificationService struct {
	repo   *repository.NotificationRepository
	pusher Pusher
}

func NewNotificationService(repo *repository.NotificationRepository, pusher Pusher) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	n := &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	}
	if err := s.repo.Create(n); err != nil {
		return err
	}
	if s.pusher != nil {
		s.pusher.BroadcastToUser(userID, map[string]interface{}{
			"type":         "notification",
			"notification": n,
		})
	}
	return nil
}

// NotifyOrderFinalized tells the buyer how their payment ended and pushes an
// order_status event so a waiting checkout page can move on.
func (s *NotificationService) NotifyOrderFinalized(o *models.Order, courseTitle string) {
	if s.pusher != nil {
		s.pusher.BroadcastToUser(o.UserID, map[string]interface{}{
			"type":             "order_status",
			"order_id":         o.ID,
			"gateway_order_id": o.GatewayOrderID,
			"course_id":        o.CourseID,
			"status":           o.Status,
		})
	}
	data := map[string]interface{}{
		"order_id":         o.ID,
		"gateway_order_id": o.GatewayOrderID,
		"course_id":        o.CourseID,
	}
	var err error
	if o.Status == domain.OrderSuccess {
		err = s.Notify(o.UserID, domain.NotifEnrollmentConfirmed, "Enrollment confirmed",
			fmt.Sprintf("You now have access to %s.", courseTitle), data)
	} else {
		err = s.Notify(o.UserID, domain.NotifPaymentFailed, "Payment failed",
			fmt.Sprintf("Your payment for %s did not go through.", courseTitle), data)
	}
	if err != nil {
		log.Printf("[notify] order %s: %v", o.GatewayOrderID, err)
	}
}

func (s *NotificationService) List(userID uint, limit, offset int) ([]models.Notification, error) {
	return s.repo.ListByUserID(userID, limit, offset)
}

func (s *NotificationService) MarkRead(id, userID uint) error {
	ok, err := s.repo.MarkRead(id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}
