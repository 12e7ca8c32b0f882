package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"
	"ambulance-dispatch/internal/utils"
	"ambulance-dispatch/pkg/logger"
	"ambulance-dispatch/pkg/push"
	"ambulance-dispatch/pkg/sms"
	"ambulance-dispatch/pkg/websocket"
)

// NotificationSink receives dispatch events after the write commits.
// Delivery is best-effort and never reports failure to the caller.
type NotificationSink interface {
	Notify(ctx context.Context, event *models.DispatchEvent)
}

// RealtimePublisher is satisfied by websocket.Handler.
type RealtimePublisher interface {
	SendToRoom(roomID, messageType string, data map[string]interface{})
	SendToUser(userID, messageType string, data map[string]interface{})
}

type NotificationService struct {
	push         push.PushProvider
	sms          sms.SMSProvider
	realtime     RealtimePublisher
	hospitalRepo interfaces.HospitalRepository
	timeout      time.Duration
	logger       *logger.Logger
	wg           sync.WaitGroup
}

type NotificationChannels struct {
	Push     push.PushProvider
	SMS      sms.SMSProvider
	Realtime RealtimePublisher
}

// NewNotificationService fans events out to every configured channel. Nil
// channels are skipped.
func NewNotificationService(channels NotificationChannels, hospitalRepo interfaces.HospitalRepository, timeout time.Duration, log *logger.Logger) *NotificationService {
	if timeout <= 0 {
		timeout = utils.NotificationTimeout
	}
	return &NotificationService{
		push:         channels.Push,
		sms:          channels.SMS,
		realtime:     channels.Realtime,
		hospitalRepo: hospitalRepo,
		timeout:      timeout,
		logger:       log,
	}
}

// Notify delivers in the background so a slow channel never holds up the
// dispatch operation.
func (s *NotificationService) Notify(ctx context.Context, event *models.DispatchEvent) {
	if event == nil {
		return
	}
	ev := *event

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		s.deliver(dctx, &ev)
	}()
}

// Close waits for in-flight deliveries.
func (s *NotificationService) Close() {
	s.wg.Wait()
}

func (s *NotificationService) deliver(ctx context.Context, event *models.DispatchEvent) {
	log := s.logger.WithFields(logger.Fields{
		"event":       event.Kind,
		"accident_id": event.AccidentID,
	})
	title, body := describe(event)
	data := event.Data()

	if s.realtime != nil {
		payload := make(map[string]interface{}, len(data))
		for k, v := range data {
			payload[k] = v
		}
		for _, room := range realtimeRooms(event) {
			s.realtime.SendToRoom(room, string(event.Kind), payload)
		}
		for _, userID := range realtimeUsers(event) {
			s.realtime.SendToUser(userID, string(event.Kind), payload)
		}
	}

	if s.push != nil {
		for _, topic := range pushTopics(event) {
			_, err := s.push.SendNotification(ctx, &push.NotificationRequest{
				Topic:       topic,
				Title:       title,
				Body:        body,
				Data:        data,
				Priority:    "high",
				CollapseKey: event.AccidentID,
			})
			if err != nil {
				log.WithError(err).WithField("topic", topic).Warn("Push notification failed")
			}
		}
	}

	if s.sms != nil && event.HospitalID != "" && smsToHospital(event.Kind) {
		s.textHospital(ctx, log, event, body)
	}
}

func (s *NotificationService) textHospital(ctx context.Context, log *logger.Logger, event *models.DispatchEvent, body string) {
	if s.hospitalRepo == nil {
		return
	}
	hospital, err := s.hospitalRepo.GetByID(ctx, event.HospitalID)
	if err != nil {
		log.WithError(err).WithField("hospital_id", event.HospitalID).Warn("Hospital lookup for SMS failed")
		return
	}
	if hospital.PhoneNumber == "" {
		return
	}

	_, err = s.sms.SendSMS(ctx, &sms.SMSRequest{
		To:      hospital.PhoneNumber,
		Message: body,
		Type:    "transactional",
	})
	if err != nil {
		log.WithError(err).WithField("hospital_id", hospital.ID).Warn("Hospital SMS failed")
	}
}

func smsToHospital(kind models.EventKind) bool {
	return kind == models.EventAssignmentCreated || kind == models.EventAssignmentReassigned
}

// reentersPool reports whether the event puts the accident back in the
// pending queue every ambulance driver watches.
func reentersPool(event *models.DispatchEvent) bool {
	switch event.Kind {
	case models.EventAccidentReported:
		return true
	case models.EventAssignmentStatusChanged:
		return event.Status == string(models.AssignmentStatusCancelled)
	}
	return false
}

func pushTopics(event *models.DispatchEvent) []string {
	var topics []string
	if reentersPool(event) {
		topics = append(topics, push.AmbulanceDriversTopic)
	}
	if event.VehicleDriverID != "" {
		topics = append(topics, push.UserTopic(event.VehicleDriverID))
	}
	if event.AmbulanceDriverID != "" {
		topics = append(topics, push.UserTopic(event.AmbulanceDriverID))
	}
	if event.HospitalID != "" {
		topics = append(topics, push.HospitalTopic(event.HospitalID))
	}
	return topics
}

func realtimeRooms(event *models.DispatchEvent) []string {
	var rooms []string
	if reentersPool(event) {
		rooms = append(rooms, websocket.RoleRoom(string(models.RoleAmbulanceDriver)))
	}
	if event.HospitalID != "" {
		rooms = append(rooms, websocket.HospitalRoom(event.HospitalID))
	}
	return rooms
}

// realtimeUsers are the parties addressed directly rather than by room.
func realtimeUsers(event *models.DispatchEvent) []string {
	var users []string
	if event.VehicleDriverID != "" {
		users = append(users, event.VehicleDriverID)
	}
	if event.AmbulanceDriverID != "" {
		users = append(users, event.AmbulanceDriverID)
	}
	return users
}

func describe(event *models.DispatchEvent) (title, body string) {
	switch event.Kind {
	case models.EventAccidentReported:
		loc := ""
		if event.Location != nil {
			loc = " at " + event.Location.String()
		}
		return "Accident reported", "A new accident was reported" + loc + "."
	case models.EventAccidentCancelled:
		return "Accident cancelled", "The reporter cancelled accident " + event.AccidentID + "."
	case models.EventAccidentCompleted:
		return "Patient delivered", "Accident " + event.AccidentID + " is complete."
	case models.EventAssignmentCreated:
		return "Ambulance assigned", "An ambulance accepted accident " + event.AccidentID + "."
	case models.EventAssignmentReassigned:
		return "Ambulance reassigned", "Accident " + event.AccidentID + " was handed to another ambulance."
	case models.EventHospitalIntakeConfirmed:
		return "Hospital ready", "The hospital confirmed intake for accident " + event.AccidentID + "."
	case models.EventAssignmentStatusChanged:
		return "Ambulance update", fmt.Sprintf("Assignment for accident %s is now %s.", event.AccidentID, event.Status)
	}
	return "Dispatch update", "Accident " + event.AccidentID + " was updated."
}
