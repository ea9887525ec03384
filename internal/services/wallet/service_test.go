package wallet

import (
	"context"
	"errors"
	"testing"

	"edupay/internal/models"
	"edupay/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Create(wallet *models.Wallet) error {
	args := m.Called(wallet)
	return args.Error(0)
}

func (m *MockRepo) GetByUserID(userID string) (*models.Wallet, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockRepo) GetByUserIDForUpdate(userID string) (*models.Wallet, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockRepo) Save(wallet *models.Wallet) error {
	args := m.Called(wallet)
	return args.Error(0)
}

func (m *MockRepo) CreateTransaction(tx *models.WalletTransaction) error {
	args := m.Called(tx)
	return args.Error(0)
}

func (m *MockRepo) ListTransactions(walletID uint) ([]models.WalletTransaction, error) {
	args := m.Called(walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WalletTransaction), args.Error(1)
}

func (m *MockRepo) ExecuteInTransaction(fn func(repositories.WalletRepository) error) error {
	return fn(m)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockCache) SetWallet(ctx context.Context, wallet *models.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockCache) InvalidateWallet(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func TestWalletService_Credit(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		amount    int64
		setupMock func(*MockRepo, *MockCache)
		wantErr   error
	}{
		{
			name:   "successful credit",
			userID: "user-1",
			amount: 100,
			setupMock: func(repo *MockRepo, cache *MockCache) {
				wallet := &models.Wallet{ID: 1, UserID: "user-1", Balance: 50}
				repo.On("GetByUserIDForUpdate", "user-1").Return(wallet, nil)
				repo.On("Save", mock.MatchedBy(func(w *models.Wallet) bool {
					return w.Balance == 150
				})).Return(nil)
				repo.On("CreateTransaction", mock.MatchedBy(func(tx *models.WalletTransaction) bool {
					return tx.WalletID == 1 && tx.Amount == 100 && tx.Direction == models.DirectionCredit
				})).Return(nil)
				cache.On("InvalidateWallet", mock.Anything, "user-1").Return(nil)
			},
		},
		{
			name:   "provisions wallet on first credit",
			userID: "user-2",
			amount: 30,
			setupMock: func(repo *MockRepo, cache *MockCache) {
				repo.On("GetByUserIDForUpdate", "user-2").Return(nil, repositories.ErrWalletNotFound)
				repo.On("Create", mock.MatchedBy(func(w *models.Wallet) bool {
					return w.UserID == "user-2"
				})).Return(nil)
				repo.On("Save", mock.MatchedBy(func(w *models.Wallet) bool {
					return w.Balance == 30
				})).Return(nil)
				repo.On("CreateTransaction", mock.Anything).Return(nil)
				cache.On("InvalidateWallet", mock.Anything, "user-2").Return(nil)
			},
		},
		{
			name:    "zero amount rejected",
			userID:  "user-1",
			amount:  0,
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount rejected",
			userID:  "user-1",
			amount:  -10,
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepo)
			cache := new(MockCache)
			if tt.setupMock != nil {
				tt.setupMock(repo, cache)
			}

			s := NewService(repo, cache)
			err := s.Credit(context.Background(), tt.userID, tt.amount, models.SourceCourse, "course-1", "test credit")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestWalletService_Debit(t *testing.T) {
	tests := []struct {
		name      string
		balance   int64
		amount    int64
		wantErr   error
		wantFinal int64
	}{
		{name: "successful debit", balance: 500, amount: 300, wantFinal: 200},
		{name: "exact balance", balance: 300, amount: 300, wantFinal: 0},
		{name: "insufficient balance", balance: 200, amount: 300, wantErr: ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepo)
			cache := new(MockCache)

			wallet := &models.Wallet{ID: 7, UserID: "user-1", Balance: tt.balance}
			repo.On("GetByUserIDForUpdate", "user-1").Return(wallet, nil)
			if tt.wantErr == nil {
				repo.On("Save", mock.MatchedBy(func(w *models.Wallet) bool {
					return w.Balance == tt.wantFinal
				})).Return(nil)
				repo.On("CreateTransaction", mock.MatchedBy(func(tx *models.WalletTransaction) bool {
					return tx.Direction == models.DirectionDebit && tx.Amount == tt.amount
				})).Return(nil)
				cache.On("InvalidateWallet", mock.Anything, "user-1").Return(nil)
			}

			s := NewService(repo, cache)
			err := s.Debit(context.Background(), "user-1", tt.amount, models.SourceCourse, "course-1", "test debit")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "Save", mock.Anything)
				repo.AssertNotCalled(t, "CreateTransaction", mock.Anything)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestWalletService_GetOrCreate(t *testing.T) {
	t.Run("returns existing wallet", func(t *testing.T) {
		repo := new(MockRepo)
		existing := &models.Wallet{ID: 1, UserID: "user-1", Balance: 40}
		repo.On("GetByUserID", "user-1").Return(existing, nil)

		s := NewService(repo, new(MockCache))
		wallet, err := s.GetOrCreate(context.Background(), "user-1")

		assert.NoError(t, err)
		assert.Equal(t, existing, wallet)
	})

	t.Run("creates wallet on first reference", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("GetByUserID", "user-9").Return(nil, repositories.ErrWalletNotFound).Once()
		repo.On("Create", mock.MatchedBy(func(w *models.Wallet) bool {
			return w.UserID == "user-9" && w.Balance == 0
		})).Return(nil)

		s := NewService(repo, new(MockCache))
		wallet, err := s.GetOrCreate(context.Background(), "user-9")

		assert.NoError(t, err)
		assert.Equal(t, "user-9", wallet.UserID)
	})

	t.Run("loses creation race without duplicating", func(t *testing.T) {
		repo := new(MockRepo)
		winner := &models.Wallet{ID: 3, UserID: "user-9"}
		repo.On("GetByUserID", "user-9").Return(nil, repositories.ErrWalletNotFound).Once()
		repo.On("Create", mock.Anything).Return(repositories.ErrDuplicateWallet)
		repo.On("GetByUserID", "user-9").Return(winner, nil).Once()

		s := NewService(repo, new(MockCache))
		wallet, err := s.GetOrCreate(context.Background(), "user-9")

		assert.NoError(t, err)
		assert.Equal(t, winner, wallet)
	})
}

func TestWalletService_Apply(t *testing.T) {
	t.Run("rejects unknown direction", func(t *testing.T) {
		s := NewService(new(MockRepo), new(MockCache))
		err := s.Apply(context.Background(), "user-1", models.TransactionData{Amount: 10, Type: "transfer"})
		assert.ErrorIs(t, err, ErrInvalidDirection)
	})

	t.Run("credits per envelope", func(t *testing.T) {
		repo := new(MockRepo)
		cache := new(MockCache)
		wallet := &models.Wallet{ID: 2, UserID: "user-1", Balance: 0}
		repo.On("GetByUserIDForUpdate", "user-1").Return(wallet, nil)
		repo.On("Save", mock.Anything).Return(nil)
		repo.On("CreateTransaction", mock.MatchedBy(func(tx *models.WalletTransaction) bool {
			return tx.Direction == models.DirectionCredit && tx.SourceID == "course-5"
		})).Return(nil)
		cache.On("InvalidateWallet", mock.Anything, "user-1").Return(nil)

		s := NewService(repo, cache)
		err := s.Apply(context.Background(), "user-1", models.TransactionData{
			Amount:      120,
			Type:        models.DirectionCredit,
			Source:      models.SourceCourse,
			SourceID:    "course-5",
			Description: "Refund for course",
		})
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestWalletService_GetWallet(t *testing.T) {
	t.Run("serves from cache", func(t *testing.T) {
		repo := new(MockRepo)
		cache := new(MockCache)
		cached := &models.Wallet{ID: 4, UserID: "user-1", Balance: 250}
		cache.On("GetWallet", mock.Anything, "user-1").Return(cached, nil)
		repo.On("ListTransactions", uint(4)).Return([]models.WalletTransaction{
			{WalletID: 4, Amount: 250, Direction: models.DirectionCredit},
		}, nil)

		s := NewService(repo, cache)
		view, err := s.GetWallet(context.Background(), "user-1")

		assert.NoError(t, err)
		assert.Equal(t, int64(250), view.Wallet.Balance)
		assert.Len(t, view.Transactions, 1)
		repo.AssertNotCalled(t, "GetByUserID", mock.Anything)
	})

	t.Run("provisions on cache and store miss", func(t *testing.T) {
		repo := new(MockRepo)
		cache := new(MockCache)
		cache.On("GetWallet", mock.Anything, "user-8").Return(nil, errors.New("redis: nil"))
		repo.On("GetByUserID", "user-8").Return(nil, repositories.ErrWalletNotFound)
		repo.On("Create", mock.Anything).Return(nil)
		cache.On("SetWallet", mock.Anything, mock.Anything).Return(nil)
		repo.On("ListTransactions", mock.Anything).Return([]models.WalletTransaction{}, nil)

		s := NewService(repo, cache)
		view, err := s.GetWallet(context.Background(), "user-8")

		assert.NoError(t, err)
		assert.Equal(t, int64(0), view.Wallet.Balance)
		assert.Empty(t, view.Transactions)
	})
}
