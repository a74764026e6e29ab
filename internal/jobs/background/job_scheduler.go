package background

import (
	"context"
	"log"
	"sync"
	"time"

	"fixflow/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages background jobs for distributed environment
type JobScheduler struct {
	scheduler       gocron.Scheduler
	invitationSvc   services.InvitationService
	notificationSvc services.NotificationService
	jobJobs         map[string]gocron.Job
	mu              sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(invitationSvc services.InvitationService, notificationSvc services.NotificationService) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:       scheduler,
		invitationSvc:   invitationSvc,
		notificationSvc: notificationSvc,
		jobJobs:         make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	// Failed notification retry - every 15 minutes
	retryJob, err := js.scheduler.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(js.retryFailedNotifications, context.Background()),
		gocron.WithName("notification-retry"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create notification retry job: %v", err)
	} else {
		js.jobJobs["notification-retry"] = retryJob
	}

	// Expired invitation purge - daily
	purgeJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.purgeExpiredInvitations, context.Background()),
		gocron.WithName("invitation-purge"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create invitation purge job: %v", err)
	} else {
		js.jobJobs["invitation-purge"] = purgeJob
	}
}

func (js *JobScheduler) retryFailedNotifications(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	retried, err := js.notificationSvc.RetryFailed(jobCtx)
	if err != nil {
		log.Printf("Notification retry job failed: %v", err)
		return
	}
	if retried > 0 {
		log.Printf("Notification retry job re-sent %d notifications", retried)
	}
}

func (js *JobScheduler) purgeExpiredInvitations(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	purged, err := js.invitationSvc.PurgeExpired(jobCtx)
	if err != nil {
		log.Printf("Invitation purge job failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("Invitation purge job removed %d expired invitations", purged)
	}
}
