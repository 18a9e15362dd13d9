package jobs

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionPurger removes expired login sessions.
type SessionPurger interface {
	PurgeExpiredSessions() (int64, error)
}

// Cleaner runs periodic housekeeping.
type Cleaner struct {
	cron     *cron.Cron
	sessions SessionPurger
	logger   *zap.Logger
}

const SessionPurgeSchedule = "@hourly"

func NewCleaner(sessions SessionPurger, logger *zap.Logger) (*Cleaner, error) {
	c := &Cleaner{
		cron:     cron.New(),
		sessions: sessions,
		logger:   logger,
	}
	if _, err := c.cron.AddFunc(SessionPurgeSchedule, c.PurgeSessions); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cleaner) Start() {
	c.cron.Start()
	c.logger.Info("cleanup jobs started", zap.Int("jobs", len(c.cron.Entries())))
}

// Stop halts the scheduler and waits for a running job to finish.
func (c *Cleaner) Stop() {
	<-c.cron.Stop().Done()
}

func (c *Cleaner) PurgeSessions() {
	removed, err := c.sessions.PurgeExpiredSessions()
	if err != nil {
		c.logger.Error("failed to purge expired sessions", zap.Error(err))
		return
	}
	c.logger.Info("expired sessions purged", zap.Int64("sessions_deleted", removed))
}
