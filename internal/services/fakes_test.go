package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/skillvest/referral-backend/internal/models"
	"github.com/skillvest/referral-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory repository fakes with MongoDB-like semantics: lookups
// return copies, misses return mongo.ErrNoDocuments, and the narrow
// atomic operations mutate stored state under a lock.

type memUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User

	// alwaysCollide makes FindByReferralCode always report a hit,
	// forcing code generation to exhaust its retries.
	alwaysCollide bool
	// conflictOn makes CreditEarnings fail its optimistic check for
	// the given users, simulating a perpetually contended account.
	conflictOn map[primitive.ObjectID]bool
	// dupKeyOnCreate makes the next Create fail with a duplicate-key
	// write exception, as the unique email/username indexes would.
	dupKeyOnCreate bool
	// dupKeyOnSetCode makes the next SetReferralCode fail with a
	// duplicate-key write exception, as the unique code index would.
	dupKeyOnSetCode bool
}

// duplicateKeyErr mimics the server response for a unique index violation.
func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
}

var _ repositories.UserRepository = (*memUserRepo)(nil)

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:      make(map[primitive.ObjectID]*models.User),
		conflictOn: make(map[primitive.ObjectID]bool),
	}
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.ReferredBy != nil {
		ref := *u.ReferredBy
		c.ReferredBy = &ref
	}
	return &c
}

func (r *memUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dupKeyOnCreate {
		r.dupKeyOnCreate = false
		return duplicateKeyErr()
	}
	user.ID = primitive.NewObjectID()
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return copyUser(u), nil
}

func (r *memUserRepo) findOne(match func(*models.User) bool) (*models.User, error) {
	for _, u := range r.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findOne(func(u *models.User) bool { return u.Email == email })
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findOne(func(u *models.User) bool { return u.Username == username })
}

func (r *memUserRepo) FindByReferralCode(_ context.Context, code string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.alwaysCollide {
		return &models.User{ID: primitive.NewObjectID(), ReferralCode: code}, nil
	}
	return r.findOne(func(u *models.User) bool { return u.ReferralCode != "" && u.ReferralCode == code })
}

func (r *memUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *memUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *memUserRepo) SetReferralCode(_ context.Context, id primitive.ObjectID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dupKeyOnSetCode {
		r.dupKeyOnSetCode = false
		return duplicateKeyErr()
	}
	u, ok := r.users[id]
	if !ok || u.ReferralCode != "" {
		return mongo.ErrNoDocuments
	}
	u.ReferralCode = code
	return nil
}

func (r *memUserRepo) SetReferredBy(_ context.Context, id, referrerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.ReferredBy != nil {
		return mongo.ErrNoDocuments
	}
	ref := referrerID
	u.ReferredBy = &ref
	return nil
}

func (r *memUserRepo) IncrementDirectTeamCount(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.DirectTeamCount++
	return nil
}

func (r *memUserRepo) ApplyInvestment(_ context.Context, id primitive.ObjectID, amount, capMultiplier float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.TotalInvestment += amount
	u.RewardsCap = u.TotalInvestment * capMultiplier
	return nil
}

func (r *memUserRepo) CreditEarnings(_ context.Context, id primitive.ObjectID, expectedEarnings, amount float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return false, nil
	}
	if r.conflictOn[id] || u.TotalEarnings != expectedEarnings {
		return false, nil
	}
	u.WalletBalance += amount
	u.TotalEarnings += amount
	return true, nil
}

func (r *memUserRepo) AddLegVolume(_ context.Context, id primitive.ObjectID, leg models.LegType, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	switch leg {
	case models.LegPower1:
		u.PowerLeg1Volume += amount
	case models.LegPower2:
		u.PowerLeg2Volume += amount
	default:
		u.OtherLegsVolume += amount
	}
	return nil
}

func (r *memUserRepo) AddMonthlyDirectBusiness(_ context.Context, id primitive.ObjectID, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.MonthlyDirectBusiness += amount
	return nil
}

func (r *memUserRepo) SetCurrentLevel(_ context.Context, id primitive.ObjectID, level int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.CurrentLevel = level
	return nil
}

func (r *memUserRepo) FindWithLevelAbove(_ context.Context, min int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if u.CurrentLevel > min {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

func (r *memUserRepo) ResetMonthlyDirectBusiness(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		u.MonthlyDirectBusiness = 0
	}
	return nil
}

type memReferralRepo struct {
	mu    sync.Mutex
	edges []*models.ReferralEdge
}

var _ repositories.ReferralRepository = (*memReferralRepo)(nil)

func newMemReferralRepo() *memReferralRepo {
	return &memReferralRepo{}
}

func copyEdge(e *models.ReferralEdge) *models.ReferralEdge {
	c := *e
	return &c
}

func (r *memReferralRepo) Create(_ context.Context, edge *models.ReferralEdge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	edge.ID = primitive.NewObjectID()
	r.edges = append(r.edges, copyEdge(edge))
	return nil
}

func (r *memReferralRepo) filter(match func(*models.ReferralEdge) bool) []*models.ReferralEdge {
	var out []*models.ReferralEdge
	for _, e := range r.edges {
		if match(e) {
			out = append(out, copyEdge(e))
		}
	}
	return out
}

func (r *memReferralRepo) FindByReferee(_ context.Context, refereeID primitive.ObjectID) ([]*models.ReferralEdge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(e *models.ReferralEdge) bool { return e.Referee == refereeID }), nil
}

func (r *memReferralRepo) FindByReferrer(_ context.Context, referrerID primitive.ObjectID) ([]*models.ReferralEdge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(e *models.ReferralEdge) bool { return e.Referrer == referrerID }), nil
}

func (r *memReferralRepo) FindByReferrerAndLevel(_ context.Context, referrerID primitive.ObjectID, level int) ([]*models.ReferralEdge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(e *models.ReferralEdge) bool { return e.Referrer == referrerID && e.Level == level }), nil
}

func (r *memReferralRepo) CountByReferrerAndLevel(ctx context.Context, referrerID primitive.ObjectID, level int) (int64, error) {
	edges, _ := r.FindByReferrerAndLevel(ctx, referrerID, level)
	return int64(len(edges)), nil
}

func (r *memReferralRepo) IncrementVolume(_ context.Context, id primitive.ObjectID, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.edges {
		if e.ID == id {
			e.TotalVolume += amount
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

type memBonusRepo struct {
	mu      sync.Mutex
	bonuses []*models.ReferralBonus
}

var _ repositories.BonusRepository = (*memBonusRepo)(nil)

func newMemBonusRepo() *memBonusRepo {
	return &memBonusRepo{}
}

func (r *memBonusRepo) Create(_ context.Context, bonus *models.ReferralBonus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bonus.ID = primitive.NewObjectID()
	c := *bonus
	r.bonuses = append(r.bonuses, &c)
	return nil
}

func (r *memBonusRepo) FindByUserID(_ context.Context, userID primitive.ObjectID) ([]*models.ReferralBonus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ReferralBonus
	for i := len(r.bonuses) - 1; i >= 0; i-- {
		if r.bonuses[i].UserID == userID {
			c := *r.bonuses[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memBonusRepo) FindByUserAndPeriod(_ context.Context, userID primitive.ObjectID, month, year int) ([]*models.ReferralBonus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ReferralBonus
	for _, b := range r.bonuses {
		if b.UserID == userID && b.Month == month && b.Year == year {
			c := *b
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memBonusRepo) ExistsForPeriod(_ context.Context, userID primitive.ObjectID, bonusType string, month, year int, sourceUserID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bonuses {
		if b.UserID == userID && b.BonusType == bonusType &&
			b.Month == month && b.Year == year && b.SourceUserID == sourceUserID {
			return true, nil
		}
	}
	return false, nil
}

type memTransactionRepo struct {
	mu  sync.Mutex
	txs []*models.Transaction
}

var _ repositories.TransactionRepository = (*memTransactionRepo)(nil)

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{}
}

func (r *memTransactionRepo) Create(_ context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx.ID = primitive.NewObjectID()
	c := *tx
	r.txs = append(r.txs, &c)
	return nil
}

func (r *memTransactionRepo) FindByUserID(_ context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range r.txs {
		if tx.UserID == userID {
			c := *tx
			out = append(out, &c)
		}
	}
	return out, nil
}

type memSystemConfigRepo struct {
	mu     sync.Mutex
	values map[string]interface{}
}

var _ repositories.SystemConfigRepository = (*memSystemConfigRepo)(nil)

func newMemSystemConfigRepo() *memSystemConfigRepo {
	return &memSystemConfigRepo{values: make(map[string]interface{})}
}

func (r *memSystemConfigRepo) FindByKey(_ context.Context, key string) (*models.SystemConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[key]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &models.SystemConfig{Key: key, Value: v}, nil
}

func (r *memSystemConfigRepo) UpsertByKey(_ context.Context, key string, value interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

// fixture wires the services over fresh in-memory stores.
type fixture struct {
	users      *memUserRepo
	edges      *memReferralRepo
	bonuses    *memBonusRepo
	txs        *memTransactionRepo
	sysConfig  *memSystemConfigRepo
	referral   *ReferralService
	bonus      *BonusService
	investment *InvestmentService
}

func newFixture() *fixture {
	f := &fixture{
		users:     newMemUserRepo(),
		edges:     newMemReferralRepo(),
		bonuses:   newMemBonusRepo(),
		txs:       newMemTransactionRepo(),
		sysConfig: newMemSystemConfigRepo(),
	}
	f.referral = NewReferralService(f.users, f.edges, f.bonuses)
	f.bonus = NewBonusService(f.users, f.edges, f.bonuses, f.txs, f.sysConfig)
	f.investment = NewInvestmentService(f.users, f.edges, f.txs, f.bonus)
	return f
}

// addUser creates a member with a username-derived email.
func (f *fixture) addUser(username string) *models.User {
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Role:     models.RoleMember,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}

// refer issues referrer's code (if needed) and signs referee up with it.
func (f *fixture) refer(referrer, referee *models.User) error {
	ctx := context.Background()
	code, err := f.referral.IssueReferralCode(ctx, referrer.ID)
	if err != nil {
		return err
	}
	return f.referral.CompleteSignup(ctx, referee.ID, code)
}
