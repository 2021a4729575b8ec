// AngelaMos | 2026
// repository.go

package principal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *Principal) error
	FindByID(ctx context.Context, id string) (*Principal, error)
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	UpdateFields(ctx context.Context, id string, changes Changes) (*Principal, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLastActive(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	MediaKeys(ctx context.Context, id string) ([]string, error)
	List(ctx context.Context, params ListParams) ([]Principal, int, error)
	ListExposable(
		ctx context.Context,
		params DirectoryParams,
		now time.Time,
	) ([]Principal, int, error)
}

const principalColumns = `id, email, password_hash, name, bio, phone, city,
	role, status,
	is_gold, gold_expires_at, is_silver, silver_expires_at,
	is_featured, featured_expires_at, is_top, top_expires_at,
	is_new, new_expires_at,
	public_expires_at, last_active_at, created_at, updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type principalRow struct {
	ID                string     `db:"id"`
	Email             string     `db:"email"`
	PasswordHash      string     `db:"password_hash"`
	Name              string     `db:"name"`
	Bio               string     `db:"bio"`
	Phone             string     `db:"phone"`
	City              string     `db:"city"`
	Role              string     `db:"role"`
	Status            string     `db:"status"`
	IsGold            bool       `db:"is_gold"`
	GoldExpiresAt     *time.Time `db:"gold_expires_at"`
	IsSilver          bool       `db:"is_silver"`
	SilverExpiresAt   *time.Time `db:"silver_expires_at"`
	IsFeatured        bool       `db:"is_featured"`
	FeaturedExpiresAt *time.Time `db:"featured_expires_at"`
	IsTop             bool       `db:"is_top"`
	TopExpiresAt      *time.Time `db:"top_expires_at"`
	IsNew             bool       `db:"is_new"`
	NewExpiresAt      *time.Time `db:"new_expires_at"`
	PublicExpiresAt   *time.Time `db:"public_expires_at"`
	LastActiveAt      *time.Time `db:"last_active_at"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func (r *principalRow) toPrincipal() *Principal {
	p := &Principal{
		ID:              r.ID,
		Email:           r.Email,
		PasswordHash:    r.PasswordHash,
		Name:            r.Name,
		Bio:             r.Bio,
		Phone:           r.Phone,
		City:            r.City,
		Role:            Role(r.Role),
		Status:          Status(r.Status),
		PublicExpiresAt: r.PublicExpiresAt,
		LastActiveAt:    r.LastActiveAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}

	p.Tiers = [TierCount]TierState{
		{Name: TierGold, Active: r.IsGold, ExpiresAt: r.GoldExpiresAt},
		{Name: TierSilver, Active: r.IsSilver, ExpiresAt: r.SilverExpiresAt},
		{Name: TierFeatured, Active: r.IsFeatured, ExpiresAt: r.FeaturedExpiresAt},
		{Name: TierTop, Active: r.IsTop, ExpiresAt: r.TopExpiresAt},
		{Name: TierNew, Active: r.IsNew, ExpiresAt: r.NewExpiresAt},
	}

	return p
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Principal) error {
	query := `
		INSERT INTO principals (id, email, password_hash, name, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.Email,
		p.PasswordHash,
		p.Name,
		string(p.Role),
		string(p.Status),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create principal: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create principal: %w", err)
	}

	p.Tiers = emptyTiers()
	return nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Principal, error) {
	id, err := canonicalID("find principal", id)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + principalColumns + ` FROM principals WHERE id = $1`

	var row principalRow
	err = r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find principal: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	return row.toPrincipal(), nil
}

func (r *repository) FindByEmail(
	ctx context.Context,
	email string,
) (*Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE email = $1`

	var row principalRow
	err := r.db.GetContext(ctx, &row, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find principal by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find principal by email: %w", err)
	}

	return row.toPrincipal(), nil
}

// UpdateFields writes every change in a single UPDATE ... RETURNING so a
// concurrent writer never observes a half-applied entitlement.
func (r *repository) UpdateFields(
	ctx context.Context,
	id string,
	changes Changes,
) (*Principal, error) {
	id, err := canonicalID("update principal", id)
	if err != nil {
		return nil, err
	}

	if err := changes.Validate(); err != nil {
		return nil, fmt.Errorf("update principal: %w", err)
	}

	setMap := make(map[string]any, len(changes))
	for field, value := range changes {
		setMap[string(field)] = value
	}

	query, args, err := psql.
		Update("principals").
		SetMap(setMap).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + principalColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build principal update: %w", err)
	}

	var row principalRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update principal: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update principal: %w", err)
	}

	return row.toPrincipal(), nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	id, err := canonicalID("update password", id)
	if err != nil {
		return err
	}

	query := `
		UPDATE principals
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

// TouchLastActive writes last_active_at only; updated_at is left alone.
func (r *repository) TouchLastActive(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	id, err := canonicalID("touch last active", id)
	if err != nil {
		return err
	}

	query := `UPDATE principals SET last_active_at = $2 WHERE id = $1`

	return r.execOne(ctx, "touch last active", query, id, at)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	id, err := canonicalID("delete principal", id)
	if err != nil {
		return err
	}

	query := `DELETE FROM principals WHERE id = $1`

	return r.execOne(ctx, "delete principal", query, id)
}

func (r *repository) MediaKeys(ctx context.Context, id string) ([]string, error) {
	id, err := canonicalID("list principal media", id)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT object_key
		FROM principal_media
		WHERE principal_id = $1
		ORDER BY object_key`

	var keys []string
	if err := r.db.SelectContext(ctx, &keys, query, id); err != nil {
		return nil, fmt.Errorf("list principal media: %w", err)
	}

	return keys, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Principal, int, error) {
	params.Normalize()

	where := sq.And{}

	if params.Search != "" {
		pattern := "%" + escapeLike(params.Search) + "%"
		where = append(where, sq.Or{
			sq.ILike{"email": pattern},
			sq.ILike{"name": pattern},
		})
	}

	if params.Role != "" {
		where = append(where, sq.Eq{"role": params.Role})
	}

	if params.Status != "" {
		where = append(where, sq.Eq{"status": params.Status})
	}

	return r.page(
		ctx,
		where,
		params.PageSize,
		params.Offset(),
		[]sq.Sqlizer{sq.Expr("created_at DESC")},
	)
}

// ListExposable is the set form of the visibility rule: the same
// ExposableStatuses and the same strict public_expires_at > now comparison
// the in-memory classifier uses.
func (r *repository) ListExposable(
	ctx context.Context,
	params DirectoryParams,
	now time.Time,
) ([]Principal, int, error) {
	params.Normalize()

	where := sq.And{
		sq.Eq{"status": exposableStatusValues()},
		sq.Gt{"public_expires_at": now},
	}

	if params.City != "" {
		where = append(where, sq.Eq{"city": params.City})
	}

	if params.Tier != "" {
		where = append(where, tierActivePredicate(params.Tier, now))
	}

	order := []sq.Sqlizer{
		orderByTier(TierGold, now),
		orderByTier(TierSilver, now),
		orderByTier(TierTop, now),
		sq.Expr("last_active_at DESC NULLS LAST"),
		sq.Expr("created_at DESC"),
	}

	return r.page(ctx, where, params.PageSize, params.Offset(), order)
}

func (r *repository) page(
	ctx context.Context,
	where sq.And,
	limit, offset int,
	order []sq.Sqlizer,
) ([]Principal, int, error) {
	countQuery, countArgs, err := psql.
		Select("COUNT(*)").
		From("principals").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count principals: %w", err)
	}

	builder := psql.
		Select(principalColumns).
		From("principals").
		Where(where)
	for _, o := range order {
		builder = builder.OrderByClause(o)
	}

	//nolint:gosec // G115: limit and offset are normalized to small positives
	query, args, err := builder.
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	var rows []principalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list principals: %w", err)
	}

	out := make([]Principal, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toPrincipal())
	}

	return out, total, nil
}

// canonicalID parses id as a UUID. An id that is not one can match no row,
// and passing it through would make Postgres fail the cast.
func canonicalID(op, id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return parsed.String(), nil
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

// tierActivePredicate mirrors the evaluator: flag set and expiry null or
// strictly after now.
func tierActivePredicate(tier TierName, now time.Time) sq.Sqlizer {
	return sq.And{
		sq.Eq{string(tier.FlagField()): true},
		sq.Or{
			sq.Eq{string(tier.ExpiryField()): nil},
			sq.Gt{string(tier.ExpiryField()): now},
		},
	}
}

func orderByTier(tier TierName, now time.Time) sq.Sqlizer {
	return sq.Expr(
		fmt.Sprintf(
			"(%s AND (%s IS NULL OR %s > ?)) DESC",
			tier.FlagField(),
			tier.ExpiryField(),
			tier.ExpiryField(),
		),
		now,
	)
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
