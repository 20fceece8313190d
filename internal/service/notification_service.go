package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-docpilot-be/internal/model"
	"ai-docpilot-be/internal/pkg/logger"
	"ai-docpilot-be/internal/repository"
	internalWS "ai-docpilot-be/internal/websocket"
	"ai-docpilot-be/pkg/events"
	pktNats "ai-docpilot-be/pkg/nats" // Renamed to avoid collision

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, message internalWS.Message)
	Broadcast(message internalWS.Message)
}

// notificationTemplate renders one event type into a user-facing
// notification. {placeholders} are filled from the event payload.
type notificationTemplate struct {
	Title      string
	Template   string
	EntityType string
}

// notificationTemplates is the in-code registry of events worth a
// notification. Events without an entry are consumed silently.
var notificationTemplates = map[string]notificationTemplate{
	"DOCUMENT_ANALYZED": {
		Title:      "Analysis complete",
		Template:   "Analysis found {suggestions} suggestions and {diagrams} diagram proposals.",
		EntityType: "document",
	},
	"SUGGESTION_APPLIED": {
		Title:      "Suggestion applied",
		Template:   "A suggestion was applied to your document.",
		EntityType: "document",
	},
	"DIAGRAM_INSERTED": {
		Title:      "Diagrams inserted",
		Template:   "{count} diagram(s) were inserted into your document.",
		EntityType: "document",
	},
	"USER_REGISTERED": {
		Title:    "Welcome to DocPilot",
		Template: "Your account is ready. Create a document to get your first analysis.",
	},
	"SUBSCRIPTION_CREATED": {
		Title:      "Subscription active",
		Template:   "Your {plan_name} subscription is now active.",
		EntityType: "subscription",
	},
	"SUBSCRIPTION_CANCELED": {
		Title:      "Subscription canceled",
		Template:   "Your subscription was canceled. Pro features stay on until the period ends.",
		EntityType: "subscription",
	},
}

type NotificationService struct {
	repo       repository.NotificationRepository
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(repo repository.NotificationRepository, sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		repo:       repo,
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	// Subscribe to all events with a durable consumer
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	// Strip "events." prefix from type if present (NATS subject includes stream name)
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	// SPECIAL HANDLING: System broadcasts are push-only. Persisting one
	// row per connected user does not scale, so nothing lands in the
	// inbox table.
	if typeCode == "SYSTEM_BROADCAST" {
		payload := event.Payload()
		title, _ := payload["title"].(string)
		message, _ := payload["message"].(string)
		if s.delivery != nil && title != "" {
			s.delivery.Broadcast(internalWS.Message{
				Type: "notification",
				Data: model.Notification{
					ID:        uuid.New(),
					Type:      typeCode,
					Title:     title,
					Message:   message,
					CreatedAt: time.Now(),
				},
			})
		}
		return nil
	}

	config, ok := notificationTemplates[typeCode]
	if !ok {
		s.logger.Debug("NotificationService", fmt.Sprintf("No template for event '%s', skipping", typeCode), nil)
		return nil
	}

	s.logger.Info("NotificationService", fmt.Sprintf("Processing event: %s", typeCode), map[string]interface{}{"type": typeCode})

	// SPECIAL HANDLING: Social Proof for Subscriptions
	// Independently of the owner's notification, everyone online sees
	// that someone went Pro.
	if typeCode == "SUBSCRIPTION_CREATED" {
		payload := event.Payload()
		fullName, _ := payload["full_name"].(string)

		if fullName != "" && s.delivery != nil {
			metaJSON, _ := json.Marshal(map[string]interface{}{
				"full_name": fullName,
				"plan_name": payload["plan_name"],
				"type":      "social_proof",
			})
			s.delivery.Broadcast(internalWS.Message{
				Type: "notification",
				Data: model.Notification{
					ID:        uuid.New(),
					Type:      "SOCIAL_PROOF",
					Title:     "New Subscriber!",
					Message:   fmt.Sprintf("%s just subscribed to Pro Plan!", fullName),
					Metadata:  datatypes.JSON(metaJSON),
					CreatedAt: time.Now(),
					IsRead:    false,
				},
			})
		}
	}

	userID, found := s.resolveRecipient(event)
	if !found {
		s.logger.Warn("NotificationService", fmt.Sprintf("No user_id in payload for event %s", typeCode), nil)
		return nil
	}

	notif := s.buildNotification(userID, typeCode, config, event)

	// Save to DB
	if err := s.repo.CreateNotification(ctx, &notif); err != nil {
		s.logger.Error("NotificationService", fmt.Sprintf("Error saving notification for user %s", userID), map[string]interface{}{"error": err})
		return err // NATS will retry if we return error
	}

	// Real-time Delivery
	if s.delivery != nil {
		s.delivery.Send(userID, internalWS.Message{Type: "notification", Data: notif})
	}

	return nil
}

// resolveRecipient pulls the owning user out of the payload. Events
// that crossed NATS carry the id as a string; in-process ones may still
// hold the raw uuid.
func (s *NotificationService) resolveRecipient(event events.Event) (uuid.UUID, bool) {
	switch v := event.Payload()["user_id"].(type) {
	case string:
		uid, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, false
		}
		return uid, true
	case uuid.UUID:
		return v, true
	default:
		return uuid.Nil, false
	}
}

func (s *NotificationService) buildNotification(userID uuid.UUID, typeCode string, config notificationTemplate, event events.Event) model.Notification {
	// Simple Template Engine
	msg := config.Template
	payload := event.Payload()

	for k, v := range payload {
		placeholder := fmt.Sprintf("{%s}", k)
		valStr := fmt.Sprintf("%v", v)
		msg = strings.ReplaceAll(msg, placeholder, valStr)
	}

	// Entity id follows the entity type by convention: "document" ->
	// payload["document_id"].
	var entityID *uuid.UUID
	if config.EntityType != "" {
		if eidStr, ok := payload[config.EntityType+"_id"].(string); ok {
			if eid, err := uuid.Parse(eidStr); err == nil {
				entityID = &eid
			}
		}
	}

	// Metadata - enrich with action_url for deep linking
	metaMap := make(map[string]interface{})
	for k, v := range payload {
		metaMap[k] = v
	}
	if config.EntityType != "" && entityID != nil {
		metaMap["action_url"] = fmt.Sprintf("/%ss/%s", config.EntityType, entityID.String())
	}
	metaJSON, _ := json.Marshal(metaMap)

	return model.Notification{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       typeCode,
		Title:      config.Title,
		Message:    msg,
		Metadata:   datatypes.JSON(metaJSON),
		EntityType: config.EntityType,
		EntityID:   entityID,
		CreatedAt:  time.Now(),
		IsRead:     false,
	}
}

// GetNotifications fetches notifications for a user.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	return s.repo.GetNotificationsByUserID(ctx, userID, limit, offset)
}

// GetUnreadCount fetches unread count.
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// MarkAsRead marks a notification as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
