package offer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appaudit "github.com/estate-hub/estate-hub/internal/application/audit"
	"github.com/estate-hub/estate-hub/internal/application/auth"
	"github.com/estate-hub/estate-hub/internal/domain/assignment"
	"github.com/estate-hub/estate-hub/internal/domain/audit"
	"github.com/estate-hub/estate-hub/internal/domain/commission"
	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/offer"
	"github.com/estate-hub/estate-hub/internal/domain/property"
	"github.com/estate-hub/estate-hub/internal/domain/rule"
	"github.com/estate-hub/estate-hub/internal/domain/settlement"
	"github.com/estate-hub/estate-hub/internal/domain/user"
	"github.com/estate-hub/estate-hub/internal/infrastructure/notify"
)

// MockOfferRepository is a mock implementation of offer.Repository
type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) Create(ctx context.Context, o *offer.Offer) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOfferRepository) GetByID(ctx context.Context, offerID uuid.UUID) (*offer.Offer, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offer.Offer), args.Error(1)
}

func (m *MockOfferRepository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*offer.Offer, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*offer.Offer), args.Error(1)
}

func (m *MockOfferRepository) ListPendingByProperty(ctx context.Context, propertyID uuid.UUID) ([]*offer.Offer, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*offer.Offer), args.Error(1)
}

func (m *MockOfferRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*offer.Offer, error) {
	args := m.Called(ctx, buyerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*offer.Offer), args.Error(1)
}

func (m *MockOfferRepository) UpdateStatusFrom(ctx context.Context, offerID uuid.UUID, from, to offer.Status, counterPrice *int64, decidedAt time.Time) error {
	args := m.Called(ctx, offerID, from, to, counterPrice, decidedAt)
	return args.Error(0)
}

func (m *MockOfferRepository) ExpireDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockPropertyRepository is a mock implementation of property.Repository
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Create(ctx context.Context, p *property.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, propertyID uuid.UUID) (*property.Property, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Property), args.Error(1)
}

func (m *MockPropertyRepository) List(ctx context.Context, status *property.Status, sellerID *uuid.UUID, limit, offset int) ([]*property.Property, error) {
	args := m.Called(ctx, status, sellerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*property.Property), args.Error(1)
}

func (m *MockPropertyRepository) Update(ctx context.Context, p *property.Property, expectedVersion int) error {
	args := m.Called(ctx, p, expectedVersion)
	return args.Error(0)
}

func (m *MockPropertyRepository) SoftDelete(ctx context.Context, propertyID uuid.UUID, expectedVersion int) error {
	args := m.Called(ctx, propertyID, expectedVersion)
	return args.Error(0)
}

// MockRuleRepository is a mock implementation of rule.Repository
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) Create(ctx context.Context, r *rule.Rule) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRuleRepository) GetByID(ctx context.Context, ruleID uuid.UUID) (*rule.Rule, error) {
	args := m.Called(ctx, ruleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rule.Rule), args.Error(1)
}

func (m *MockRuleRepository) List(ctx context.Context) ([]*rule.Rule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rule.Rule), args.Error(1)
}

func (m *MockRuleRepository) ListEnabled(ctx context.Context) ([]*rule.Rule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rule.Rule), args.Error(1)
}

func (m *MockRuleRepository) Update(ctx context.Context, r *rule.Rule) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRuleRepository) Delete(ctx context.Context, ruleID uuid.UUID) error {
	args := m.Called(ctx, ruleID)
	return args.Error(0)
}

// MockAssignmentRepository is a mock implementation of assignment.Repository
type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) Create(ctx context.Context, a *assignment.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssignmentRepository) GetByID(ctx context.Context, assignmentID uuid.UUID) (*assignment.Assignment, error) {
	args := m.Called(ctx, assignmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) GetActiveByProperty(ctx context.Context, propertyID uuid.UUID) (*assignment.Assignment, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) GetLatestCompletedByProperty(ctx context.Context, propertyID uuid.UUID) (*assignment.Assignment, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) ListByAgent(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]*assignment.Assignment, error) {
	args := m.Called(ctx, agentID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*assignment.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) Update(ctx context.Context, a *assignment.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of settlement.Repository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, t *settlement.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, transactionID uuid.UUID) (*settlement.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByOffer(ctx context.Context, offerID uuid.UUID) (*settlement.Transaction, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByStatus(ctx context.Context, status *settlement.Status, limit, offset int) ([]*settlement.Transaction, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*settlement.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Update(ctx context.Context, t *settlement.Transaction, expectedVersion int) error {
	args := m.Called(ctx, t, expectedVersion)
	return args.Error(0)
}

// MockCommissionRepository is a mock implementation of settlement.CommissionRepository
type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) Create(ctx context.Context, r *settlement.CommissionRecord) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockCommissionRepository) GetByID(ctx context.Context, recordID uuid.UUID) (*settlement.CommissionRecord, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.CommissionRecord), args.Error(1)
}

func (m *MockCommissionRepository) GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*settlement.CommissionRecord, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.CommissionRecord), args.Error(1)
}

func (m *MockCommissionRepository) MarkReady(ctx context.Context, recordID uuid.UUID) error {
	args := m.Called(ctx, recordID)
	return args.Error(0)
}

func (m *MockCommissionRepository) Disburse(ctx context.Context, recordID uuid.UUID, externalRef string) error {
	args := m.Called(ctx, recordID, externalRef)
	return args.Error(0)
}

func (m *MockCommissionRepository) Waive(ctx context.Context, recordID uuid.UUID) error {
	args := m.Called(ctx, recordID)
	return args.Error(0)
}

// stubAuditRepository accepts every write; tests only assert on
// service behaviour, not on the async audit trail.
type stubAuditRepository struct{}

func (stubAuditRepository) Create(ctx context.Context, log *audit.AuditLog) error { return nil }
func (stubAuditRepository) GetByID(ctx context.Context, auditID uuid.UUID) (*audit.AuditLog, error) {
	return nil, nil
}
func (stubAuditRepository) GetByEntityID(ctx context.Context, entityType audit.EntityType, entityID string) ([]*audit.AuditLog, error) {
	return nil, nil
}
func (stubAuditRepository) Query(ctx context.Context, filter audit.QueryFilter, cursor *audit.Cursor, limit int) ([]*audit.AuditLog, *audit.Cursor, error) {
	return nil, nil, nil
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(ctx context.Context, ev notify.Event) {}

type fixture struct {
	repo           *MockOfferRepository
	propertyRepo   *MockPropertyRepository
	ruleRepo       *MockRuleRepository
	assignmentRepo *MockAssignmentRepository
	txnRepo        *MockTransactionRepository
	commissionRepo *MockCommissionRepository
	svc            *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:           new(MockOfferRepository),
		propertyRepo:   new(MockPropertyRepository),
		ruleRepo:       new(MockRuleRepository),
		assignmentRepo: new(MockAssignmentRepository),
		txnRepo:        new(MockTransactionRepository),
		commissionRepo: new(MockCommissionRepository),
	}
	auditSvc := appaudit.NewService(stubAuditRepository{}, zerolog.Nop(), nil)
	f.svc = NewService(f.repo, f.propertyRepo, f.ruleRepo, f.assignmentRepo, f.txnRepo, f.commissionRepo, commission.DefaultSchedule, offer.DefaultExpiry, nopDispatcher{}, auditSvc, zerolog.Nop())
	return f
}

func buyerActor() auth.Actor {
	return auth.Actor{UserID: uuid.New(), Username: "buyer.r", Role: user.RoleBuyer}
}

func TestSubmit_Success(t *testing.T) {
	f := newFixture(t)
	actor := buyerActor()
	p := &property.Property{PropertyID: uuid.New(), SellerID: uuid.New(), Status: property.StatusActive, Price: 8_800_000}

	f.propertyRepo.On("GetByID", mock.Anything, p.PropertyID).Return(p, nil)
	f.ruleRepo.On("ListEnabled", mock.Anything).Return([]*rule.Rule{}, nil)
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*offer.Offer")).Return(nil)

	o, err := f.svc.Submit(context.Background(), actor, SubmitInput{
		PropertyID:   p.PropertyID,
		OfferedPrice: 8_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, offer.StatusPending, o.Status)
	assert.Equal(t, actor.UserID, o.BuyerID)
	assert.Equal(t, int64(8_000_000), o.OfferedPrice)
	assert.True(t, o.ExpiresAt.After(o.CreatedAt))
	f.repo.AssertExpectations(t)
}

func TestSubmit_RejectedByRule(t *testing.T) {
	f := newFixture(t)
	actor := buyerActor()
	p := &property.Property{PropertyID: uuid.New(), SellerID: uuid.New(), Status: property.StatusActive, Price: 8_800_000}

	floor := &rule.Rule{RuleID: uuid.New(), Name: "half of list", Expression: "ratio >= 0.5", Enabled: true}
	f.propertyRepo.On("GetByID", mock.Anything, p.PropertyID).Return(p, nil)
	f.ruleRepo.On("ListEnabled", mock.Anything).Return([]*rule.Rule{floor}, nil)

	_, err := f.svc.Submit(context.Background(), actor, SubmitInput{
		PropertyID:   p.PropertyID,
		OfferedPrice: 1_000_000,
	})
	require.Error(t, err)
	var verr *fault.ValidationError
	assert.ErrorAs(t, err, &verr)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_NotActiveProperty(t *testing.T) {
	f := newFixture(t)
	actor := buyerActor()
	p := &property.Property{PropertyID: uuid.New(), SellerID: uuid.New(), Status: property.StatusReserved, Price: 8_800_000}

	f.propertyRepo.On("GetByID", mock.Anything, p.PropertyID).Return(p, nil)

	_, err := f.svc.Submit(context.Background(), actor, SubmitInput{PropertyID: p.PropertyID, OfferedPrice: 8_000_000})
	var verr *fault.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSubmit_NonBuyer(t *testing.T) {
	f := newFixture(t)
	actor := auth.Actor{UserID: uuid.New(), Username: "seller.m", Role: user.RoleSeller}
	_, err := f.svc.Submit(context.Background(), actor, SubmitInput{PropertyID: uuid.New(), OfferedPrice: 1})
	var uerr *fault.UnauthorizedError
	assert.ErrorAs(t, err, &uerr)
}

func TestAccept_OpensTransaction(t *testing.T) {
	f := newFixture(t)
	sellerID := uuid.New()
	agentID := uuid.New()
	actor := auth.Actor{UserID: sellerID, Username: "seller.m", Role: user.RoleSeller}

	p := &property.Property{PropertyID: uuid.New(), SellerID: sellerID, Status: property.StatusActive, Price: 8_800_000, Version: 3}
	o := &offer.Offer{
		OfferID:      uuid.New(),
		PropertyID:   p.PropertyID,
		BuyerID:      uuid.New(),
		OfferedPrice: 8_800_000,
		Status:       offer.StatusPending,
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
	}
	sibling := &offer.Offer{OfferID: uuid.New(), PropertyID: p.PropertyID, BuyerID: uuid.New(), Status: offer.StatusPending}

	f.repo.On("GetByID", mock.Anything, o.OfferID).Return(o, nil)
	f.propertyRepo.On("GetByID", mock.Anything, p.PropertyID).Return(p, nil)
	f.assignmentRepo.On("GetLatestCompletedByProperty", mock.Anything, p.PropertyID).
		Return(&assignment.Assignment{AssignmentID: uuid.New(), PropertyID: p.PropertyID, AgentID: agentID, Status: assignment.StatusCompleted}, nil)
	f.repo.On("UpdateStatusFrom", mock.Anything, o.OfferID, offer.StatusPending, offer.StatusAccepted, (*int64)(nil), mock.Anything).Return(nil)
	f.propertyRepo.On("Update", mock.Anything, p, 3).Return(nil)
	f.txnRepo.On("Create", mock.Anything, mock.AnythingOfType("*settlement.Transaction")).Return(nil)
	f.commissionRepo.On("Create", mock.Anything, mock.AnythingOfType("*settlement.CommissionRecord")).Return(nil)
	f.repo.On("ListPendingByProperty", mock.Anything, p.PropertyID).Return([]*offer.Offer{o, sibling}, nil)
	f.repo.On("UpdateStatusFrom", mock.Anything, sibling.OfferID, offer.StatusPending, offer.StatusRejected, (*int64)(nil), mock.Anything).Return(nil)

	txn, err := f.svc.Accept(context.Background(), actor, o.OfferID)
	require.NoError(t, err)

	assert.Equal(t, settlement.StatusInitiated, txn.Status)
	assert.Equal(t, o.BuyerID, txn.BuyerID)
	assert.Equal(t, sellerID, txn.SellerID)
	assert.Equal(t, agentID, txn.AgentID)
	assert.Equal(t, int64(8_800_000), txn.TotalPrice)
	assert.Equal(t, int64(88_000), txn.TokenAmount)
	assert.Equal(t, int64(176_000), txn.TotalCommission)
	assert.Equal(t, int64(105_600), txn.AgentShare)
	assert.Equal(t, int64(70_400), txn.PlatformShare)

	assert.Equal(t, property.StatusReserved, p.Status)
	f.repo.AssertExpectations(t)
	f.txnRepo.AssertExpectations(t)
	f.commissionRepo.AssertExpectations(t)
}

func TestAccept_ExpiredOffer(t *testing.T) {
	f := newFixture(t)
	sellerID := uuid.New()
	actor := auth.Actor{UserID: sellerID, Username: "seller.m", Role: user.RoleSeller}

	p := &property.Property{PropertyID: uuid.New(), SellerID: sellerID, Status: property.StatusActive, Price: 8_800_000}
	o := &offer.Offer{
		OfferID:      uuid.New(),
		PropertyID:   p.PropertyID,
		BuyerID:      uuid.New(),
		OfferedPrice: 8_000_000,
		Status:       offer.StatusPending,
		ExpiresAt:    time.Now().UTC().Add(-time.Minute),
	}

	f.repo.On("GetByID", mock.Anything, o.OfferID).Return(o, nil)
	f.propertyRepo.On("GetByID", mock.Anything, p.PropertyID).Return(p, nil)
	f.repo.On("UpdateStatusFrom", mock.Anything, o.OfferID, offer.StatusPending, offer.StatusExpired, (*int64)(nil), mock.Anything).Return(nil)

	_, err := f.svc.Accept(context.Background(), actor, o.OfferID)
	var exp *fault.ExpiredError
	require.ErrorAs(t, err, &exp)
	f.txnRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAccept_UnreservableProperty(t *testing.T) {
	f := newFixture(t)
	sellerID := uuid.New()
	actor := auth.Actor{UserID: sellerID, Username: "seller.m", Role: user.RoleSeller}

	// the seller paused the listing while the offer sat pending
	p := &property.Property{PropertyID: uuid.New(), SellerID: sellerID, Status: property.StatusInactive, Price: 8_800_000}
	o := &offer.Offer{
		OfferID:      uuid.New(),
		PropertyID:   p.PropertyID,
		BuyerID:      uuid.New(),
		OfferedPrice: 8_000_000,
		Status:       offer.StatusPending,
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
	}

	f.repo.On("GetByID", mock.Anything, o.OfferID).Return(o, nil)
	f.propertyRepo.On("GetByID", mock.Anything, p.PropertyID).Return(p, nil)

	_, err := f.svc.Accept(context.Background(), actor, o.OfferID)
	var terr *fault.InvalidTransitionError
	require.ErrorAs(t, err, &terr)

	// the offer must not be half-accepted
	f.repo.AssertNotCalled(t, "UpdateStatusFrom", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.txnRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, offer.StatusPending, o.Status)
}

func TestAccept_StrangerDenied(t *testing.T) {
	f := newFixture(t)
	actor := buyerActor()
	p := &property.Property{PropertyID: uuid.New(), SellerID: uuid.New(), Status: property.StatusActive, Price: 1_000_000}
	o := &offer.Offer{
		OfferID:      uuid.New(),
		PropertyID:   p.PropertyID,
		BuyerID:      uuid.New(),
		OfferedPrice: 900_000,
		Status:       offer.StatusPending,
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
	}
	f.repo.On("GetByID", mock.Anything, o.OfferID).Return(o, nil)
	f.propertyRepo.On("GetByID", mock.Anything, p.PropertyID).Return(p, nil)

	_, err := f.svc.Accept(context.Background(), actor, o.OfferID)
	var uerr *fault.UnauthorizedError
	assert.ErrorAs(t, err, &uerr)
}

func TestCounter_InvalidPrice(t *testing.T) {
	f := newFixture(t)
	actor := auth.Actor{UserID: uuid.New(), Username: "seller.m", Role: user.RoleSeller}
	_, err := f.svc.Counter(context.Background(), actor, uuid.New(), 0)
	var verr *fault.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestWithdraw_OtherBuyerDenied(t *testing.T) {
	f := newFixture(t)
	actor := buyerActor()
	o := &offer.Offer{OfferID: uuid.New(), PropertyID: uuid.New(), BuyerID: uuid.New(), Status: offer.StatusPending}
	f.repo.On("GetByID", mock.Anything, o.OfferID).Return(o, nil)

	_, err := f.svc.Withdraw(context.Background(), actor, o.OfferID)
	var uerr *fault.UnauthorizedError
	assert.ErrorAs(t, err, &uerr)
	f.repo.AssertNotCalled(t, "UpdateStatusFrom", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdraw_AdminDenied(t *testing.T) {
	f := newFixture(t)
	actor := auth.Actor{UserID: uuid.New(), Username: "admin", Role: user.RoleAdmin}
	o := &offer.Offer{OfferID: uuid.New(), PropertyID: uuid.New(), BuyerID: uuid.New(), Status: offer.StatusPending}
	f.repo.On("GetByID", mock.Anything, o.OfferID).Return(o, nil)

	_, err := f.svc.Withdraw(context.Background(), actor, o.OfferID)
	var uerr *fault.UnauthorizedError
	assert.ErrorAs(t, err, &uerr)
	f.repo.AssertNotCalled(t, "UpdateStatusFrom", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSweepExpired(t *testing.T) {
	f := newFixture(t)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	f.repo.On("ExpireDue", mock.Anything, mock.Anything).Return(ids, nil)

	n, err := f.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestGetThread(t *testing.T) {
	f := newFixture(t)
	propertyID := uuid.New()
	buyerID := uuid.New()
	first := &offer.Offer{OfferID: uuid.New(), PropertyID: propertyID, BuyerID: buyerID, Status: offer.StatusCountered}
	second := &offer.Offer{OfferID: uuid.New(), PropertyID: propertyID, BuyerID: buyerID, ParentOfferID: &first.OfferID, Status: offer.StatusPending}

	f.repo.On("GetByID", mock.Anything, second.OfferID).Return(second, nil)
	f.repo.On("ListByProperty", mock.Anything, propertyID).Return([]*offer.Offer{second, first}, nil)

	thread, err := f.svc.GetThread(context.Background(), second.OfferID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, first.OfferID, thread[0].OfferID)
	assert.Equal(t, second.OfferID, thread[1].OfferID)
}
