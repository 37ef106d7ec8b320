package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/smarttodo-be/internal/mail"
	"github.com/isdelr/smarttodo-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ReminderWindow is how far ahead of a due date the owner is mailed.
const ReminderWindow = 24 * time.Hour

const jobTimeout = 2 * time.Minute

// Scheduler runs the background jobs: due-date reminders and activity pruning.
type Scheduler struct {
	cron      *cron.Cron
	taskSvc   services.TaskServiceProvider
	eventSvc  services.EventServiceProvider
	mailer    mail.Sender
	retention time.Duration
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. Events older than
// retention are deleted by the prune job.
func NewScheduler(taskSvc services.TaskServiceProvider, eventSvc services.EventServiceProvider, mailer mail.Sender, retention time.Duration) *Scheduler {
	logger := cron.PrintfLogger(&log.Logger)
	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		taskSvc:   taskSvc,
		eventSvc:  eventSvc,
		mailer:    mailer,
		retention: retention,
		now:       time.Now,
	}
}

// Start registers the jobs with their cron specs and starts the scheduler.
func (s *Scheduler) Start(reminderSpec, pruneSpec string) error {
	if _, err := s.cron.AddFunc(reminderSpec, s.runReminders); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", reminderSpec, err)
	}
	if _, err := s.cron.AddFunc(pruneSpec, s.runPrune); err != nil {
		return fmt.Errorf("invalid activity prune schedule %q: %w", pruneSpec, err)
	}

	log.Info().Str("reminders", reminderSpec).Str("prune", pruneSpec).Msg("Starting background scheduler...")
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped background scheduler.")
}

func (s *Scheduler) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	sent, err := s.SendDueReminders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to send due reminders")
		return
	}
	if sent > 0 {
		log.Info().Int("sent", sent).Msg("Scheduler: Sent due reminders")
	}
}

func (s *Scheduler) runPrune() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.PruneEvents(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to prune activity")
		return
	}
	log.Info().Int64("deleted", n).Msg("Scheduler: Pruned activity")
}

// SendDueReminders mails the owner of every open task due within
// ReminderWindow that has not been reminded yet. A failed mail leaves the
// task unmarked so the next run retries it.
func (s *Scheduler) SendDueReminders(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.taskSvc.ListDueForReminder(ctx, now.Add(ReminderWindow))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, task := range due {
		if err := s.mailer.SendDueReminder(ctx, task.OwnerEmail, task.OwnerUsername, task.Title, *task.DueDate); err != nil {
			log.Error().Err(err).Str("task_id", task.ID).Str("user_id", task.UserID).Msg("Scheduler: Failed to send reminder")
			continue
		}
		if err := s.taskSvc.MarkReminded(ctx, task.ID, now); err != nil {
			return sent, err
		}
		sent++

		taskID := task.ID
		msg := fmt.Sprintf("Reminder sent for task '%s'.", task.Title)
		if err := s.eventSvc.CreateEvent(ctx, task.UserID, services.EventTaskReminder, msg, &taskID); err != nil {
			log.Warn().Err(err).Str("task_id", task.ID).Msg("Scheduler: Failed to record reminder event")
		}
	}
	return sent, nil
}

// PruneEvents deletes activity older than the retention period.
func (s *Scheduler) PruneEvents(ctx context.Context) (int64, error) {
	return s.eventSvc.PruneEvents(ctx, s.now().Add(-s.retention))
}
