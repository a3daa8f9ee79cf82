package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type ExpiredPurger interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OtpCleanupJob removes codes that expired more than retention ago.
type OtpCleanupJob struct {
	store     ExpiredPurger
	retention time.Duration
	now       func() time.Time
}

func NewOtpCleanupJob(store ExpiredPurger, retention time.Duration) *OtpCleanupJob {
	return &OtpCleanupJob{store: store, retention: retention, now: time.Now}
}

func (j *OtpCleanupJob) Name() string {
	return "otp_cleanup"
}

func (j *OtpCleanupJob) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	retention := j.retention
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	cutoff := j.now().Add(-retention)
	removed, err := j.store.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("expired otp records removed", zap.Int64("count", removed), zap.Time("cutoff", cutoff))
	return nil
}
