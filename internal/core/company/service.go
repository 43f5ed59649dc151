package company

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("company")

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

type noopNotifier struct{}

func (noopNotifier) Compose(context.Context, Event, *Company) (Message, error) {
	return Message{}, nil
}

func (noopNotifier) Enqueue(context.Context, Message) error {
	return nil
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service は会社のライフサイクルに関するユースケースをまとめます。
// 会社を変更できるのは Service のみです。
type Service struct {
	repo     Repository
	guard    *UniquenessGuard
	composer Composer
	notifier Notifier
	clock    Clock
	tx       TransactionManager
	logger   zerolog.Logger
}

// UseCase は会社ユースケースの公開インターフェースです。
type UseCase interface {
	CreateCompany(ctx context.Context, in CreateCompanyInput) (*Company, error)
	UpdateCompany(ctx context.Context, in UpdateCompanyInput) (*Company, error)
	ToggleCompanyActive(ctx context.Context, in ToggleCompanyActiveInput) (*Company, error)
	DeleteCompany(ctx context.Context, in DeleteCompanyInput) (*Company, error)
	GetCompany(ctx context.Context, in GetCompanyInput) (*Company, error)
	FindCompanyByShortName(ctx context.Context, in FindCompanyByShortNameInput) (*Company, error)
	ListActiveCompanies(ctx context.Context, in ListCompaniesInput) (*ListCompaniesResult, error)
	ListDeletedCompanies(ctx context.Context, in ListCompaniesInput) (*ListCompaniesResult, error)
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithClock は現在時刻の取得元を差し替えます。
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithTransactionManager はトランザクション制御を設定します。
func WithTransactionManager(tx TransactionManager) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// WithLogger は通知失敗などを記録するロガーを設定します。
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は Service を生成します。composer と notifier が nil の場合は通知を行いません。
func NewService(repo Repository, composer Composer, notifier Notifier, opts ...Option) *Service {
	if composer == nil {
		composer = noopNotifier{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	s := &Service{
		repo:     repo,
		guard:    NewUniquenessGuard(repo),
		composer: composer,
		notifier: notifier,
		clock:    realClock{},
		tx:       noopTransactionManager{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCompanyInput は会社作成時の入力です。
type CreateCompanyInput struct {
	Fields  Fields
	ActorID uuid.UUID
}

// UpdateCompanyInput は会社更新時の入力です。全属性を置き換えます。
type UpdateCompanyInput struct {
	ID      int64
	Fields  Fields
	ActorID uuid.UUID
}

// ToggleCompanyActiveInput は有効状態の切り替え時の入力です。
type ToggleCompanyActiveInput struct {
	ID      int64
	ActorID uuid.UUID
}

// DeleteCompanyInput は会社削除時の入力です。
type DeleteCompanyInput struct {
	ID      int64
	ActorID uuid.UUID
}

// GetCompanyInput は会社取得時の入力です。
type GetCompanyInput struct {
	ID int64
}

// FindCompanyByShortNameInput は略称による検索の入力です。
type FindCompanyByShortNameInput struct {
	ShortName string
}

// ListCompaniesInput は一覧取得時の入力です。
type ListCompaniesInput struct {
	PageSize  int
	PageToken string
}

// ListCompaniesResult は一覧取得結果を表します。
type ListCompaniesResult struct {
	Companies     []*Company
	NextPageToken string
}

// CreateCompany は新しい会社を作成し、作成通知を送信キューに積みます。
func (s *Service) CreateCompany(ctx context.Context, in CreateCompanyInput) (*Company, error) {
	ctx, span := tracer.Start(ctx, "Company.Service.CreateCompany")
	defer span.End()

	if in.ActorID == uuid.Nil {
		return nil, ErrInvalidActor
	}

	var created *Company
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.guard.Check(txCtx, in.Fields.Email, in.Fields.ShortName, 0); err != nil {
			return err
		}

		company := newCompany(in.Fields, in.ActorID, s.clock.Now())

		saved, err := s.repo.Save(txCtx, company)
		if err != nil {
			return persistenceError("save", err)
		}

		created = saved
		return nil
	}); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("company.id", created.ID()))
	s.notify(ctx, EventCreated, created)
	return created, nil
}

// UpdateCompany は会社の全属性を置き換え、更新通知を送信キューに積みます。
// 自身のメールアドレスと略称は重複とみなしません。
func (s *Service) UpdateCompany(ctx context.Context, in UpdateCompanyInput) (*Company, error) {
	ctx, span := tracer.Start(ctx, "Company.Service.UpdateCompany", trace.WithAttributes(attribute.Int64("company.id", in.ID)))
	defer span.End()

	if err := validateTarget(in.ID, in.ActorID); err != nil {
		return nil, err
	}

	var updated *Company
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.findByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		if existing.IsDeleted() {
			return ErrCompanyDeleted
		}

		if err := s.guard.Check(txCtx, in.Fields.Email, in.Fields.ShortName, existing.ID()); err != nil {
			return err
		}

		if err := existing.update(in.Fields, in.ActorID, s.clock.Now()); err != nil {
			return err
		}

		saved, err := s.repo.Save(txCtx, existing)
		if err != nil {
			return persistenceError("save", err)
		}

		updated = saved
		return nil
	}); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.notify(ctx, EventUpdated, updated)
	return updated, nil
}

// ToggleCompanyActive は有効状態を反転し、状態変更通知を送信キューに積みます。
func (s *Service) ToggleCompanyActive(ctx context.Context, in ToggleCompanyActiveInput) (*Company, error) {
	ctx, span := tracer.Start(ctx, "Company.Service.ToggleCompanyActive", trace.WithAttributes(attribute.Int64("company.id", in.ID)))
	defer span.End()

	if err := validateTarget(in.ID, in.ActorID); err != nil {
		return nil, err
	}

	changed, err := s.transition(ctx, in.ID, func(c *Company, now time.Time) error {
		if c.IsActive() {
			return c.Deactivate(in.ActorID, now)
		}
		return c.Activate(in.ActorID, now)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("company.active", changed.IsActive()))
	s.notify(ctx, EventActiveChanged, changed)
	return changed, nil
}

// DeleteCompany は会社を論理削除し、削除通知を送信キューに積みます。
func (s *Service) DeleteCompany(ctx context.Context, in DeleteCompanyInput) (*Company, error) {
	ctx, span := tracer.Start(ctx, "Company.Service.DeleteCompany", trace.WithAttributes(attribute.Int64("company.id", in.ID)))
	defer span.End()

	if err := validateTarget(in.ID, in.ActorID); err != nil {
		return nil, err
	}

	deleted, err := s.transition(ctx, in.ID, func(c *Company, now time.Time) error {
		return c.SoftDelete(in.ActorID, now)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.notify(ctx, EventDeleted, deleted)
	return deleted, nil
}

// GetCompany は ID で会社を取得します。
func (s *Service) GetCompany(ctx context.Context, in GetCompanyInput) (*Company, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}

	var company *Company
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.findByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		company = result
		return nil
	}); err != nil {
		return nil, err
	}

	return company, nil
}

// FindCompanyByShortName は略称で会社を取得します。
func (s *Service) FindCompanyByShortName(ctx context.Context, in FindCompanyByShortNameInput) (*Company, error) {
	shortName := strings.TrimSpace(in.ShortName)
	if shortName == "" {
		return nil, ErrInvalidShortName
	}

	var company *Company
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindByShortName(txCtx, shortName)
		if err != nil {
			return persistenceError("find by short name", err)
		}
		company = result
		return nil
	}); err != nil {
		return nil, err
	}

	return company, nil
}

// ListActiveCompanies は有効かつ未削除の会社の一覧を取得します。
func (s *Service) ListActiveCompanies(ctx context.Context, in ListCompaniesInput) (*ListCompaniesResult, error) {
	return s.list(ctx, in, s.repo.ListActive)
}

// ListDeletedCompanies は論理削除済みの会社の一覧を取得します。
func (s *Service) ListDeletedCompanies(ctx context.Context, in ListCompaniesInput) (*ListCompaniesResult, error) {
	return s.list(ctx, in, s.repo.ListDeleted)
}

type listFunc func(ctx context.Context, page Page) ([]*Company, string, error)

func (s *Service) list(ctx context.Context, in ListCompaniesInput, fetch listFunc) (*ListCompaniesResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var (
		companies []*Company
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := fetch(txCtx, Page{Limit: limit, Offset: offset})
		if err != nil {
			return persistenceError("list", err)
		}
		companies = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListCompaniesResult{
		Companies:     companies,
		NextPageToken: nextToken,
	}, nil
}

// transition は会社を読み込み、mutate を適用して保存します。
func (s *Service) transition(ctx context.Context, id int64, mutate func(*Company, time.Time) error) (*Company, error) {
	var result *Company
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.findByID(txCtx, id)
		if err != nil {
			return err
		}

		if err := mutate(existing, s.clock.Now()); err != nil {
			return err
		}

		saved, err := s.repo.Save(txCtx, existing)
		if err != nil {
			return persistenceError("save", err)
		}

		result = saved
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) findByID(ctx context.Context, id int64) (*Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, persistenceError("find by id", err)
	}
	return company, nil
}

// notify は通知を組み立てて送信キューに積みます。失敗は記録のみ行います。
func (s *Service) notify(ctx context.Context, event Event, c *Company) {
	msg, err := s.composer.Compose(ctx, event, c)
	if err != nil {
		s.logger.Warn().Err(err).Str("event", string(event)).Int64("company_id", c.ID()).Msg("compose company notification")
		return
	}
	if msg.To == "" {
		return
	}
	if err := s.notifier.Enqueue(ctx, msg); err != nil {
		s.logger.Warn().Err(err).Str("event", string(event)).Int64("company_id", c.ID()).Msg("enqueue company notification")
	}
}

func validateTarget(id int64, actor uuid.UUID) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if actor == uuid.Nil {
		return ErrInvalidActor
	}
	return nil
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
