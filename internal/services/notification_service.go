package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"text/template"
	"time"

	"fixflow/internal/common"
	"fixflow/internal/models"
	"fixflow/internal/repositories"

	"github.com/google/uuid"
)

// NotificationEvent is what the lifecycle engines hand to the
// dispatcher on a successful transition.
type NotificationEvent struct {
	Type           models.EventType
	RecipientID    uuid.UUID
	OrganizationID uuid.UUID
	RequestID      *uuid.UUID
	RequestTitle   string
	Detail         string
}

// NotificationService dispatches email/SMS for notification events and
// owns the durable notification log. Dispatch failures are recorded and
// logged, never propagated: the triggering operation's outcome does not
// depend on delivery.
type NotificationService interface {
	// Dispatch sends the event over every enabled channel. The returned
	// error is nil or carries KindChannelFailure; callers may ignore it.
	Dispatch(ctx context.Context, event NotificationEvent) error
	// DispatchAsync fires Dispatch on a background context so the
	// triggering call returns as soon as its own mutation is durable.
	DispatchAsync(event NotificationEvent)

	RetryFailed(ctx context.Context) (int, error)

	ListByUser(ctx context.Context, organizationID, userID uuid.UUID, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, organizationID, userID, id uuid.UUID) error
	Delete(ctx context.Context, organizationID, userID, id uuid.UUID) error

	GetPreferences(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error)
	UpdatePreferences(ctx context.Context, pref *models.NotificationPreference) error
}

type messageTemplate struct {
	subject string
	email   string
	sms     string
}

// Per-type message templates. Email bodies are HTML fragments; SMS is a
// single plain-text line. Every template renders the recipient name,
// the request title and a deep link.
var messageTemplates = map[models.EventType]messageTemplate{
	models.EventNewRequest: {
		subject: "New maintenance request: {{.Title}}",
		email:   `<p>Hi {{.Name}},</p><p>A new maintenance request <strong>{{.Title}}</strong> was submitted.</p><p><a href="{{.Link}}">View the request</a></p>`,
		sms:     `New request "{{.Title}}". View: {{.Link}}`,
	},
	models.EventStatusUpdate: {
		subject: "Update on your request: {{.Title}}",
		email:   `<p>Hi {{.Name}},</p><p>Your request <strong>{{.Title}}</strong> was updated{{if .Detail}}: {{.Detail}}{{end}}.</p><p><a href="{{.Link}}">View the request</a></p>`,
		sms:     `Request "{{.Title}}" updated{{if .Detail}}: {{.Detail}}{{end}}. {{.Link}}`,
	},
	models.EventAssignment: {
		subject: "You have been assigned: {{.Title}}",
		email:   `<p>Hi {{.Name}},</p><p>You have been assigned to <strong>{{.Title}}</strong>.</p><p><a href="{{.Link}}">View the request</a></p>`,
		sms:     `Assigned to you: "{{.Title}}". {{.Link}}`,
	},
	models.EventEmergency: {
		subject: "EMERGENCY request: {{.Title}}",
		email:   `<p>Hi {{.Name}},</p><p>An <strong>emergency</strong> request <strong>{{.Title}}</strong> needs immediate attention.</p><p><a href="{{.Link}}">View the request</a></p>`,
		sms:     `EMERGENCY: "{{.Title}}". {{.Link}}`,
	},
	models.EventComment: {
		subject: "New comment on: {{.Title}}",
		email:   `<p>Hi {{.Name}},</p><p>There is a new comment on <strong>{{.Title}}</strong>{{if .Detail}}: {{.Detail}}{{end}}.</p><p><a href="{{.Link}}">View the request</a></p>`,
		sms:     `New comment on "{{.Title}}". {{.Link}}`,
	},
	models.EventInvitation: {
		subject: "You're invited to {{.Title}}",
		email:   `<p>Hi {{.Name}},</p><p>You have been invited to join <strong>{{.Title}}</strong>.</p><p><a href="{{.Link}}">Accept your invitation</a></p>`,
		sms:     `You're invited to {{.Title}}. Accept: {{.Link}}`,
	},
}

type templateData struct {
	Name   string
	Title  string
	Link   string
	Detail string
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	preferenceRepo   repositories.PreferenceRepository
	directorySvc     DirectoryService
	limitsIface      LimitsService
	emailSender      EmailSender
	smsSender        SMSSender
	appBaseURL       string
	dispatchTimeout  time.Duration
	templates        map[string]*template.Template
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	preferenceRepo repositories.PreferenceRepository,
	directorySvc DirectoryService,
	limitsSvc LimitsService,
	emailSender EmailSender,
	smsSender SMSSender,
	appBaseURL string,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		preferenceRepo:   preferenceRepo,
		directorySvc:     directorySvc,
		limitsIface:      limitsSvc,
		emailSender:      emailSender,
		smsSender:        smsSender,
		appBaseURL:       appBaseURL,
		dispatchTimeout:  30 * time.Second,
		templates:        compileTemplates(),
	}
}

// compileTemplates parses the static template set once at construction.
// The returned map is read-only afterwards, so concurrent dispatch
// goroutines share it without locking.
func compileTemplates() map[string]*template.Template {
	compiled := make(map[string]*template.Template, len(messageTemplates)*3)
	for eventType, tmpl := range messageTemplates {
		key := string(eventType)
		compiled[key+":subject"] = template.Must(template.New(key + ":subject").Parse(tmpl.subject))
		compiled[key+":email"] = template.Must(template.New(key + ":email").Parse(tmpl.email))
		compiled[key+":sms"] = template.Must(template.New(key + ":sms").Parse(tmpl.sms))
	}
	return compiled
}

func (s *notificationService) render(name string, data templateData) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("no template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *notificationService) deepLink(event NotificationEvent) string {
	if event.RequestID != nil {
		return fmt.Sprintf("%s/requests/%s", s.appBaseURL, event.RequestID)
	}
	return s.appBaseURL
}

func (s *notificationService) DispatchAsync(event NotificationEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()
		if err := s.Dispatch(ctx, event); err != nil {
			log.Printf("notification dispatch failed: type=%s recipient=%s: %v", event.Type, event.RecipientID, err)
		}
	}()
}

func (s *notificationService) Dispatch(ctx context.Context, event NotificationEvent) error {
	if _, ok := messageTemplates[event.Type]; !ok {
		log.Printf("notification dispatch skipped: unknown event type %q", event.Type)
		return nil
	}

	recipient, err := s.directorySvc.GetProfile(ctx, event.RecipientID)
	if err != nil {
		return common.ChannelFailure(err, "recipient lookup failed")
	}

	pref, err := s.preferenceRepo.Get(ctx, event.RecipientID)
	if err != nil {
		return common.ChannelFailure(err, "preference lookup failed")
	}
	if pref != nil && !pref.Allows(event.Type) {
		return nil
	}

	data := templateData{
		Name:   recipient.FullName,
		Title:  event.RequestTitle,
		Link:   s.deepLink(event),
		Detail: event.Detail,
	}

	var firstFailure error
	if recipient.EmailEnabled {
		if err := s.sendEmail(ctx, recipient, event, data); err != nil && firstFailure == nil {
			firstFailure = err
		}
	}
	if recipient.SMSEnabled && recipient.Phone != nil {
		if err := s.sendSMS(ctx, recipient, event, data); err != nil && firstFailure == nil {
			firstFailure = err
		}
	}
	return firstFailure
}

func (s *notificationService) sendEmail(ctx context.Context, recipient *models.Profile, event NotificationEvent, data templateData) error {
	subject, err := s.render(string(event.Type)+":subject", data)
	if err != nil {
		return common.ChannelFailure(err, "email template render failed")
	}
	body, err := s.render(string(event.Type)+":email", data)
	if err != nil {
		return common.ChannelFailure(err, "email template render failed")
	}

	record := &models.Notification{
		ID:             uuid.New(),
		OrganizationID: event.OrganizationID,
		UserID:         recipient.ID,
		EventType:      event.Type,
		Channel:        models.ChannelEmail,
		Subject:        &subject,
		Body:           body,
		Status:         models.NotificationPending,
		RequestID:      event.RequestID,
	}
	if err := s.notificationRepo.Create(ctx, record); err != nil {
		return common.ChannelFailure(err, "notification record failed")
	}

	if err := s.emailSender.SendEmail(ctx, recipient.Email, subject, body); err != nil {
		msg := err.Error()
		_ = s.notificationRepo.MarkResult(ctx, record.ID, models.NotificationFailed, &msg)
		log.Printf("email send failed: recipient=%s event=%s: %v", recipient.Email, event.Type, err)
		return common.ChannelFailure(err, "email send failed")
	}
	_ = s.notificationRepo.MarkResult(ctx, record.ID, models.NotificationSent, nil)
	return nil
}

func (s *notificationService) sendSMS(ctx context.Context, recipient *models.Profile, event NotificationEvent, data templateData) error {
	allowed, err := s.limitsIface.CheckLimit(ctx, event.OrganizationID, models.LimitSMS)
	if err != nil {
		return common.ChannelFailure(err, "sms limit check failed")
	}

	body, err := s.render(string(event.Type)+":sms", data)
	if err != nil {
		return common.ChannelFailure(err, "sms template render failed")
	}

	record := &models.Notification{
		ID:             uuid.New(),
		OrganizationID: event.OrganizationID,
		UserID:         recipient.ID,
		EventType:      event.Type,
		Channel:        models.ChannelSMS,
		Body:           body,
		Status:         models.NotificationPending,
		RequestID:      event.RequestID,
	}

	if !allowed {
		skipped := "monthly sms limit reached"
		record.Status = models.NotificationSkipped
		record.Error = &skipped
		_ = s.notificationRepo.Create(ctx, record)
		log.Printf("sms skipped: org=%s monthly limit reached", event.OrganizationID)
		return nil
	}

	if err := s.notificationRepo.Create(ctx, record); err != nil {
		return common.ChannelFailure(err, "notification record failed")
	}

	if err := s.smsSender.SendSMS(ctx, *recipient.Phone, body); err != nil {
		msg := err.Error()
		_ = s.notificationRepo.MarkResult(ctx, record.ID, models.NotificationFailed, &msg)
		log.Printf("sms send failed: recipient=%s event=%s: %v", *recipient.Phone, event.Type, err)
		return common.ChannelFailure(err, "sms send failed")
	}
	_ = s.notificationRepo.MarkResult(ctx, record.ID, models.NotificationSent, nil)
	_ = s.limitsIface.RecordSMS(ctx, event.OrganizationID)
	return nil
}

const maxDispatchRetries = 5

// RetryFailed re-sends failed notification rows from the durable log.
// Invoked by the background scheduler, never by request handlers.
func (s *notificationService) RetryFailed(ctx context.Context) (int, error) {
	failed, err := s.notificationRepo.ListFailed(ctx, maxDispatchRetries, 100)
	if err != nil {
		return 0, err
	}

	retried := 0
	for _, n := range failed {
		recipient, err := s.directorySvc.GetProfile(ctx, n.UserID)
		if err != nil {
			continue
		}

		var sendErr error
		switch n.Channel {
		case models.ChannelEmail:
			sendErr = s.emailSender.SendEmail(ctx, recipient.Email, common.SafeString(n.Subject), n.Body)
		case models.ChannelSMS:
			if recipient.Phone == nil {
				continue
			}
			sendErr = s.smsSender.SendSMS(ctx, *recipient.Phone, n.Body)
		}

		if sendErr != nil {
			msg := sendErr.Error()
			_ = s.notificationRepo.IncrementRetry(ctx, n.ID, models.NotificationFailed, &msg)
			continue
		}
		_ = s.notificationRepo.IncrementRetry(ctx, n.ID, models.NotificationSent, nil)
		if n.Channel == models.ChannelSMS {
			_ = s.limitsIface.RecordSMS(ctx, n.OrganizationID)
		}
		retried++
	}
	return retried, nil
}

func (s *notificationService) ListByUser(ctx context.Context, organizationID, userID uuid.UUID, limit, offset int) ([]*models.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, organizationID, userID, limit, offset)
}

func (s *notificationService) MarkRead(ctx context.Context, organizationID, userID, id uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, organizationID, userID, id)
}

func (s *notificationService) Delete(ctx context.Context, organizationID, userID, id uuid.UUID) error {
	return s.notificationRepo.Delete(ctx, organizationID, userID, id)
}

func (s *notificationService) GetPreferences(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	pref, err := s.preferenceRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		// No row yet means every event type is on.
		return &models.NotificationPreference{
			UserID:       userID,
			NewRequest:   true,
			StatusUpdate: true,
			Assignment:   true,
			Emergency:    true,
			Comment:      true,
		}, nil
	}
	return pref, nil
}

func (s *notificationService) UpdatePreferences(ctx context.Context, pref *models.NotificationPreference) error {
	existing, err := s.preferenceRepo.Get(ctx, pref.UserID)
	if err != nil {
		return err
	}
	if existing == nil {
		return s.preferenceRepo.Create(ctx, pref)
	}
	return s.preferenceRepo.Update(ctx, pref)
}
