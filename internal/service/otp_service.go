package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/easyledger/internal/model"
	"github.com/xxxsen/easyledger/internal/notify"
	appErr "github.com/xxxsen/easyledger/internal/pkg/errors"
)

const (
	defaultOtpTTL        = 10 * time.Minute
	defaultOtpCodeLength = 4
)

// OtpStore is the persistence the OTP flow needs. Consume must be a single
// conditional update so that concurrent verifications accept at most once.
type OtpStore interface {
	Create(ctx context.Context, rec *model.OtpRecord) error
	FindLatest(ctx context.Context, email, code string) (*model.OtpRecord, error)
	GetByID(ctx context.Context, id int64) (*model.OtpRecord, error)
	Consume(ctx context.Context, id int64, now time.Time) (bool, error)
}

type OtpOptions struct {
	TTL        time.Duration
	CodeLength int
	Subject    string
	// StrictDelivery turns notifier failures into request failures. The record
	// is kept either way.
	StrictDelivery bool
}

type OtpService struct {
	store    OtpStore
	notifier notify.Notifier
	opts     OtpOptions
	now      func() time.Time
}

func NewOtpService(store OtpStore, notifier notify.Notifier, opts OtpOptions) *OtpService {
	if opts.TTL <= 0 {
		opts.TTL = defaultOtpTTL
	}
	if opts.CodeLength <= 0 {
		opts.CodeLength = defaultOtpCodeLength
	}
	if opts.Subject == "" {
		opts.Subject = "Your verification code"
	}
	return &OtpService{store: store, notifier: notifier, opts: opts, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Issue stores a fresh code for email and hands it to the notifier. Every call
// creates an independent record.
func (s *OtpService) Issue(ctx context.Context, email string) (*model.OtpRecord, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, appErr.ErrInvalid
	}
	code, err := generateCode(s.opts.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	now := s.now()
	rec := &model.OtpRecord{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(s.opts.TTL),
		Used:      false,
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create otp: %w", err)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("email", email), zap.Int64("otp_id", rec.ID))
	logger.Info("otp issued", zap.Time("expires_at", rec.ExpiresAt))

	if s.notifier == nil {
		return rec, nil
	}
	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.opts.TTL.Minutes()))
	if err := s.notifier.Send(ctx, email, s.opts.Subject, body); err != nil {
		logger.Error("otp delivery failed", zap.String("notifier", s.notifier.Name()), zap.Error(err))
		if s.opts.StrictDelivery {
			return nil, fmt.Errorf("deliver otp: %w", err)
		}
	}
	return rec, nil
}

// Verify accepts code for email at most once. Rejections are reported with
// appErr.ErrCodeInvalid, appErr.ErrCodeUsed and appErr.ErrCodeExpired, in that
// order of precedence.
func (s *OtpService) Verify(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return appErr.ErrInvalid
	}
	rec, err := s.store.FindLatest(ctx, email, code)
	if err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrCodeInvalid
		}
		return fmt.Errorf("find otp: %w", err)
	}
	now := s.now()
	if err := checkUsable(rec, now); err != nil {
		return err
	}
	ok, err := s.store.Consume(ctx, rec.ID, now)
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	if ok {
		logutil.GetLogger(ctx).Info("otp verified", zap.String("email", email), zap.Int64("otp_id", rec.ID))
		return nil
	}
	// Lost the race against another verification, or expired in between.
	current, err := s.store.GetByID(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("reload otp: %w", err)
	}
	if err := checkUsable(current, now); err != nil {
		return err
	}
	return errors.Join(appErr.ErrInternal, fmt.Errorf("otp %d not consumed", rec.ID))
}

func checkUsable(rec *model.OtpRecord, now time.Time) error {
	if rec.Used {
		return appErr.ErrCodeUsed
	}
	if rec.Expired(now) {
		return appErr.ErrCodeExpired
	}
	return nil
}
