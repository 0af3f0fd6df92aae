package settlement

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
	"github.com/estate-hub/estate-hub/internal/domain/audit"
	"github.com/estate-hub/estate-hub/internal/domain/fault"
	"github.com/estate-hub/estate-hub/internal/domain/otp"
	"github.com/estate-hub/estate-hub/internal/domain/property"
	"github.com/estate-hub/estate-hub/internal/domain/settlement"
	"github.com/estate-hub/estate-hub/internal/domain/user"
	"github.com/estate-hub/estate-hub/internal/infrastructure/notify"
)

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

// MockPaymentRepository is a mock implementation of settlement.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *settlement.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, paymentID uuid.UUID) (*settlement.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*settlement.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*settlement.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *settlement.Payment) error {
	args := m.Called(ctx, p)
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

// MockOTPStore is a mock implementation of otp.Store
type MockOTPStore struct {
	mock.Mock
}

func (m *MockOTPStore) Put(ctx context.Context, key, codeHash string, ttl time.Duration) error {
	args := m.Called(ctx, key, codeHash, ttl)
	return args.Error(0)
}

func (m *MockOTPStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockOTPStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockOTPStore) RegisterFailure(ctx context.Context, key string, maxAttempts int, lockFor time.Duration) (bool, error) {
	args := m.Called(ctx, key, maxAttempts, lockFor)
	return args.Bool(0), args.Error(1)
}

func (m *MockOTPStore) Locked(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

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
	txnRepo        *MockTransactionRepository
	paymentRepo    *MockPaymentRepository
	commissionRepo *MockCommissionRepository
	propertyRepo   *MockPropertyRepository
	otpStore       *MockOTPStore
	svc            *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		txnRepo:        new(MockTransactionRepository),
		paymentRepo:    new(MockPaymentRepository),
		commissionRepo: new(MockCommissionRepository),
		propertyRepo:   new(MockPropertyRepository),
		otpStore:       new(MockOTPStore),
	}
	auditSvc := appaudit.NewService(stubAuditRepository{}, zerolog.Nop(), nil)
	f.svc = NewService(f.txnRepo, f.paymentRepo, f.commissionRepo, f.propertyRepo, f.otpStore, nopDispatcher{}, auditSvc, Config{
		OTPTTL:         10 * time.Minute,
		OTPMaxAttempts: 5,
		OTPLockFor:     30 * time.Minute,
		CheckInRadiusM: 500,
	}, zerolog.Nop())
	return f
}

func newTransaction(status settlement.Status) *settlement.Transaction {
	return &settlement.Transaction{
		TransactionID:   uuid.New(),
		OfferID:         uuid.New(),
		PropertyID:      uuid.New(),
		BuyerID:         uuid.New(),
		SellerID:        uuid.New(),
		AgentID:         uuid.New(),
		Status:          status,
		TotalPrice:      8_800_000,
		TokenAmount:     88_000,
		TotalCommission: 176_000,
		AgentShare:      105_600,
		PlatformShare:   70_400,
		Version:         1,
	}
}

func agentActor(t *settlement.Transaction) auth.Actor {
	return auth.Actor{UserID: t.AgentID, Username: "agent.k", Role: user.RoleAgent}
}

func adminActor() auth.Actor {
	return auth.Actor{UserID: uuid.New(), Username: "admin", Role: user.RoleAdmin}
}

func TestSendOTP_SellerBeforeBuyerRejected(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusSlotBooked)
	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)

	err := f.svc.SendOTP(context.Background(), agentActor(txn), txn.TransactionID, settlement.PartySeller)
	var terr *fault.InvalidTransitionError
	require.ErrorAs(t, err, &terr)

	// no challenge may exist for the seller yet
	f.otpStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendOTP_BuyerAtSlotBooked(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusSlotBooked)
	key := otp.Key(otp.PurposeSettlementBuyer, txn.TransactionID.String())

	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)
	f.otpStore.On("Put", mock.Anything, key, mock.AnythingOfType("string"), 10*time.Minute).Return(nil)

	err := f.svc.SendOTP(context.Background(), agentActor(txn), txn.TransactionID, settlement.PartyBuyer)
	require.NoError(t, err)
	f.otpStore.AssertExpectations(t)
}

func TestSendOTP_OutsideVerificationWindow(t *testing.T) {
	f := newFixture(t)
	for _, status := range []settlement.Status{settlement.StatusInitiated, settlement.StatusAllVerified, settlement.StatusCancelled} {
		txn := newTransaction(status)
		f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)

		err := f.svc.SendOTP(context.Background(), agentActor(txn), txn.TransactionID, settlement.PartyBuyer)
		var terr *fault.InvalidTransitionError
		assert.ErrorAs(t, err, &terr, string(status))
	}
	f.otpStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyOTP_SellerBeforeBuyerRejected(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusSlotBooked)
	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)

	_, err := f.svc.VerifyOTP(context.Background(), agentActor(txn), txn.TransactionID, settlement.PartySeller, "123456")
	var terr *fault.InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	f.otpStore.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestVerifyOTP_SellerAdvancesToAllVerified(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusBuyerVerified)
	code := "123456"
	key := otp.Key(otp.PurposeSettlementSeller, txn.TransactionID.String())

	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)
	f.otpStore.On("Locked", mock.Anything, key).Return(false, nil)
	f.otpStore.On("Get", mock.Anything, key).Return(otp.HashCode(code), true, nil)
	f.otpStore.On("Delete", mock.Anything, key).Return(nil)
	f.txnRepo.On("Update", mock.Anything, txn, mock.Anything).Return(nil)

	out, err := f.svc.VerifyOTP(context.Background(), agentActor(txn), txn.TransactionID, settlement.PartySeller, code)
	require.NoError(t, err)

	assert.Equal(t, settlement.StatusAllVerified, out.Status)
	require.NotNil(t, out.SellerVerifiedAt)
	f.txnRepo.AssertNumberOfCalls(t, "Update", 2)
}

func TestVerifyOTP_WrongCodeRegistersFailure(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusSlotBooked)
	key := otp.Key(otp.PurposeSettlementBuyer, txn.TransactionID.String())

	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)
	f.otpStore.On("Locked", mock.Anything, key).Return(false, nil)
	f.otpStore.On("Get", mock.Anything, key).Return(otp.HashCode("654321"), true, nil)
	f.otpStore.On("RegisterFailure", mock.Anything, key, 5, 30*time.Minute).Return(false, nil)

	_, err := f.svc.VerifyOTP(context.Background(), agentActor(txn), txn.TransactionID, settlement.PartyBuyer, "123456")
	var verr *fault.ValidationError
	require.ErrorAs(t, err, &verr)
	f.otpStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	f.txnRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyOTP_LockedChallenge(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusSlotBooked)
	key := otp.Key(otp.PurposeSettlementBuyer, txn.TransactionID.String())

	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)
	f.otpStore.On("Locked", mock.Anything, key).Return(true, nil)

	_, err := f.svc.VerifyOTP(context.Background(), agentActor(txn), txn.TransactionID, settlement.PartyBuyer, "123456")
	var uerr *fault.UnauthorizedError
	assert.ErrorAs(t, err, &uerr)
}

func TestBookSlot_PastDate(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusInitiated)
	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)

	_, err := f.svc.BookSlot(context.Background(), agentActor(txn), txn.TransactionID, BookSlotInput{
		Date:   time.Now().UTC().Add(-time.Hour),
		Office: "Sub-Registrar Office North",
	})
	var verr *fault.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRecordPayment_DeedProofMovesToDocumentsPending(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusSellerPaid)
	actor := agentActor(txn)

	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)
	f.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*settlement.Payment")).Return(nil)
	f.txnRepo.On("Update", mock.Anything, txn, mock.Anything).Return(nil)

	p, err := f.svc.RecordPayment(context.Background(), actor, txn.TransactionID, RecordPaymentInput{
		Type:     settlement.PaymentRegistrationDoc,
		Amount:   1,
		ProofRef: "DOC-2026-0042",
	})
	require.NoError(t, err)
	assert.Equal(t, settlement.PaymentPending, p.Status)
	assert.Equal(t, settlement.StatusDocumentsPending, txn.Status)
}

func TestRecordPayment_ClosedTransaction(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusCancelled)
	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)

	_, err := f.svc.RecordPayment(context.Background(), agentActor(txn), txn.TransactionID, RecordPaymentInput{
		Type:     settlement.PaymentToken,
		Amount:   88_000,
		ProofRef: "UTR-1",
	})
	assert.True(t, fault.IsConflict(err))
	f.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVerifyPayment_TokenPaysSeller(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusAllVerified)
	payment := &settlement.Payment{
		PaymentID:     uuid.New(),
		TransactionID: txn.TransactionID,
		Type:          settlement.PaymentToken,
		Amount:        88_000,
		ProofRef:      "UTR-1",
		Status:        settlement.PaymentPending,
	}

	f.paymentRepo.On("GetByID", mock.Anything, payment.PaymentID).Return(payment, nil)
	f.paymentRepo.On("Update", mock.Anything, payment).Return(nil)
	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)
	f.txnRepo.On("Update", mock.Anything, txn, mock.Anything).Return(nil)

	out, err := f.svc.VerifyPayment(context.Background(), adminActor(), payment.PaymentID, true, "matched")
	require.NoError(t, err)
	assert.Equal(t, settlement.PaymentVerified, out.Status)
	assert.Equal(t, settlement.StatusSellerPaid, txn.Status)
}

func TestVerifyPayment_CommissionReadiesPayout(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusSellerPaid)
	payment := &settlement.Payment{
		PaymentID:     uuid.New(),
		TransactionID: txn.TransactionID,
		Type:          settlement.PaymentPlatformCommission,
		Amount:        176_000,
		ProofRef:      "UTR-2",
		Status:        settlement.PaymentPending,
	}
	record := &settlement.CommissionRecord{
		RecordID:      uuid.New(),
		TransactionID: txn.TransactionID,
		AgentShare:    105_600,
		Status:        settlement.PayoutPending,
	}

	f.paymentRepo.On("GetByID", mock.Anything, payment.PaymentID).Return(payment, nil)
	f.paymentRepo.On("Update", mock.Anything, payment).Return(nil)
	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)
	f.commissionRepo.On("GetByTransaction", mock.Anything, txn.TransactionID).Return(record, nil)
	f.commissionRepo.On("MarkReady", mock.Anything, record.RecordID).Return(nil)

	_, err := f.svc.VerifyPayment(context.Background(), adminActor(), payment.PaymentID, true, "")
	require.NoError(t, err)
	f.commissionRepo.AssertCalled(t, "MarkReady", mock.Anything, record.RecordID)
}

func TestVerifyPayment_NonAdminDenied(t *testing.T) {
	f := newFixture(t)
	actor := auth.Actor{UserID: uuid.New(), Username: "agent.k", Role: user.RoleAgent}
	_, err := f.svc.VerifyPayment(context.Background(), actor, uuid.New(), true, "")
	var uerr *fault.UnauthorizedError
	assert.ErrorAs(t, err, &uerr)
}

func TestDisburseCommission_RetryDoesNotDoublePay(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusDocumentsPending)
	record := &settlement.CommissionRecord{
		RecordID:      uuid.New(),
		TransactionID: txn.TransactionID,
		AgentShare:    105_600,
		Status:        settlement.PayoutPaid,
	}

	f.commissionRepo.On("GetByTransaction", mock.Anything, txn.TransactionID).Return(record, nil)
	f.commissionRepo.On("Disburse", mock.Anything, record.RecordID, "PAYOUT-7").
		Return(&fault.AlreadyDisbursedError{CommissionRecordID: record.RecordID.String()})

	_, err := f.svc.DisburseCommission(context.Background(), adminActor(), txn.TransactionID, "PAYOUT-7")
	var derr *fault.AlreadyDisbursedError
	require.ErrorAs(t, err, &derr)
	f.commissionRepo.AssertNumberOfCalls(t, "Disburse", 1)
}

func TestDisburseCommission_RequiresExternalRef(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.DisburseCommission(context.Background(), adminActor(), uuid.New(), "")
	var verr *fault.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestWaiveCommission_RequiresReason(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.WaiveCommission(context.Background(), adminActor(), uuid.New(), "")
	var verr *fault.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestComplete_RequiresCheckIn(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusDocumentsPending)
	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)

	_, err := f.svc.Complete(context.Background(), agentActor(txn), txn.TransactionID)
	var verr *fault.ValidationError
	require.ErrorAs(t, err, &verr)
	f.paymentRepo.AssertNotCalled(t, "ListByTransaction", mock.Anything, mock.Anything)
}

func TestComplete_MarksPropertySold(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusDocumentsPending)
	now := time.Now().UTC()
	txn.AgentCheckedInAt = &now

	payments := []*settlement.Payment{
		{PaymentID: uuid.New(), Type: settlement.PaymentToken, Status: settlement.PaymentVerified},
		{PaymentID: uuid.New(), Type: settlement.PaymentRegistrationDoc, Status: settlement.PaymentVerified},
		{PaymentID: uuid.New(), Type: settlement.PaymentPlatformCommission, Status: settlement.PaymentVerified},
	}
	record := &settlement.CommissionRecord{RecordID: uuid.New(), TransactionID: txn.TransactionID, Status: settlement.PayoutPaid}
	p := &property.Property{PropertyID: txn.PropertyID, SellerID: txn.SellerID, Status: property.StatusReserved, Version: 4}

	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)
	f.paymentRepo.On("ListByTransaction", mock.Anything, txn.TransactionID).Return(payments, nil)
	f.commissionRepo.On("GetByTransaction", mock.Anything, txn.TransactionID).Return(record, nil)
	f.propertyRepo.On("GetByID", mock.Anything, txn.PropertyID).Return(p, nil)
	f.txnRepo.On("Update", mock.Anything, txn, mock.Anything).Return(nil)
	f.propertyRepo.On("Update", mock.Anything, p, 4).Return(nil)

	out, err := f.svc.Complete(context.Background(), agentActor(txn), txn.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusCompleted, out.Status)
	require.NotNil(t, out.CompletedAt)
	assert.Equal(t, property.StatusSold, p.Status)
	require.NotNil(t, p.SoldAt)
}

func TestComplete_UnsettledCommission(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusDocumentsPending)
	now := time.Now().UTC()
	txn.AgentCheckedInAt = &now

	payments := []*settlement.Payment{
		{PaymentID: uuid.New(), Type: settlement.PaymentToken, Status: settlement.PaymentVerified},
		{PaymentID: uuid.New(), Type: settlement.PaymentRegistrationDoc, Status: settlement.PaymentVerified},
		{PaymentID: uuid.New(), Type: settlement.PaymentPlatformCommission, Status: settlement.PaymentVerified},
	}
	record := &settlement.CommissionRecord{RecordID: uuid.New(), TransactionID: txn.TransactionID, Status: settlement.PayoutReadyToDisburse}

	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)
	f.paymentRepo.On("ListByTransaction", mock.Anything, txn.TransactionID).Return(payments, nil)
	f.commissionRepo.On("GetByTransaction", mock.Anything, txn.TransactionID).Return(record, nil)

	_, err := f.svc.Complete(context.Background(), agentActor(txn), txn.TransactionID)
	var verr *fault.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCancel_ReturnsPropertyToMarketAndWaivesPayout(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusSlotBooked)
	record := &settlement.CommissionRecord{RecordID: uuid.New(), TransactionID: txn.TransactionID, Status: settlement.PayoutPending}
	p := &property.Property{PropertyID: txn.PropertyID, SellerID: txn.SellerID, Status: property.StatusReserved, Version: 2}

	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)
	f.txnRepo.On("Update", mock.Anything, txn, mock.Anything).Return(nil)
	f.commissionRepo.On("GetByTransaction", mock.Anything, txn.TransactionID).Return(record, nil)
	f.commissionRepo.On("Waive", mock.Anything, record.RecordID).Return(nil)
	f.propertyRepo.On("GetByID", mock.Anything, txn.PropertyID).Return(p, nil)
	f.propertyRepo.On("Update", mock.Anything, p, 2).Return(nil)

	out, err := f.svc.Cancel(context.Background(), agentActor(txn), txn.TransactionID, "buyer backed out")
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusCancelled, out.Status)
	assert.Equal(t, property.StatusActive, p.Status)
	f.commissionRepo.AssertCalled(t, "Waive", mock.Anything, record.RecordID)
}

func TestCancel_RequiresReason(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusSlotBooked)
	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)

	_, err := f.svc.Cancel(context.Background(), agentActor(txn), txn.TransactionID, "")
	var verr *fault.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestGetForParty_StrangerDenied(t *testing.T) {
	f := newFixture(t)
	txn := newTransaction(settlement.StatusInitiated)
	stranger := auth.Actor{UserID: uuid.New(), Username: "someone", Role: user.RoleBuyer}
	f.txnRepo.On("GetByID", mock.Anything, txn.TransactionID).Return(txn, nil)

	_, err := f.svc.ListPayments(context.Background(), stranger, txn.TransactionID)
	var uerr *fault.UnauthorizedError
	assert.ErrorAs(t, err, &uerr)
}
