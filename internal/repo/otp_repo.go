package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/easyledger/internal/model"
	"github.com/xxxsen/easyledger/internal/pkg/dbutil"
	appErr "github.com/xxxsen/easyledger/internal/pkg/errors"
)

const otpTable = "email_otps"

var otpColumns = []string{"id", "email", "code", "expires_at", "used", "created_at"}

type OtpRepo struct {
	db *sql.DB
}

func NewOtpRepo(db *sql.DB) *OtpRepo {
	return &OtpRepo{db: db}
}

func (r *OtpRepo) Create(ctx context.Context, rec *model.OtpRecord) error {
	const query = `
		INSERT INTO email_otps (email, code, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	row := r.db.QueryRowContext(ctx, query, rec.Email, rec.Code, rec.ExpiresAt, rec.Used, rec.CreatedAt)
	if err := row.Scan(&rec.ID); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

// FindLatest returns the most recently issued record for the exact (email, code) pair.
func (r *OtpRepo) FindLatest(ctx context.Context, email, code string) (*model.OtpRecord, error) {
	where := map[string]interface{}{
		"email":    email,
		"code":     code,
		"_orderby": "id desc",
		"_limit":   []uint{0, 1},
	}
	return r.selectOne(ctx, where)
}

func (r *OtpRepo) GetByID(ctx context.Context, id int64) (*model.OtpRecord, error) {
	return r.selectOne(ctx, map[string]interface{}{"id": id})
}

// Consume flips used to true only while the record is unused and unexpired.
// It reports whether this call performed the transition.
func (r *OtpRepo) Consume(ctx context.Context, id int64, now time.Time) (bool, error) {
	where := map[string]interface{}{
		"id":            id,
		"used":          false,
		"expires_at >=": now,
	}
	update := map[string]interface{}{"used": true}
	sqlStr, args, err := builder.BuildUpdate(otpTable, where, update)
	if err != nil {
		return false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *OtpRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	where := map[string]interface{}{"expires_at <": cutoff}
	sqlStr, args, err := builder.BuildDelete(otpTable, where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *OtpRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *OtpRepo) selectOne(ctx context.Context, where map[string]interface{}) (*model.OtpRecord, error) {
	sqlStr, args, err := builder.BuildSelect(otpTable, where, otpColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotFound
	}
	var rec model.OtpRecord
	if err := rows.Scan(&rec.ID, &rec.Email, &rec.Code, &rec.ExpiresAt, &rec.Used, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}
