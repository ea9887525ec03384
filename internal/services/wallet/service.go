package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"

	"edupay/internal/models"
	"edupay/internal/repositories"
)

type service struct {
	repo  repositories.WalletRepository
	cache Cache
}

// NewService creates a new wallet ledger service.
func NewService(repo repositories.WalletRepository, cache Cache) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cache == nil {
		cache = noopCache{}
	}
	return &service{repo: repo, cache: cache}
}

func (s *service) GetOrCreate(ctx context.Context, userID string) (*models.Wallet, error) {
	wallet, err := s.repo.GetByUserID(userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	wallet = &models.Wallet{UserID: userID}
	if err := s.repo.Create(wallet); err != nil {
		// Lost the race against a concurrent first reference; the unique
		// user_id key guarantees a single row either way.
		if errors.Is(err, repositories.ErrDuplicateWallet) {
			return s.repo.GetByUserID(userID)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return wallet, nil
}

func (s *service) Credit(ctx context.Context, userID string, amount int64, source, sourceID, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	err := s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		wallet, err := lockOrCreate(tx, userID)
		if err != nil {
			return err
		}

		wallet.Balance += amount
		if err := tx.Save(wallet); err != nil {
			return err
		}

		return tx.CreateTransaction(&models.WalletTransaction{
			WalletID:    wallet.ID,
			Amount:      amount,
			Direction:   models.DirectionCredit,
			Source:      source,
			SourceID:    sourceID,
			Description: description,
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, userID)
	return nil
}

func (s *service) Debit(ctx context.Context, userID string, amount int64, source, sourceID, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	err := s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		wallet, err := lockOrCreate(tx, userID)
		if err != nil {
			return err
		}

		// The row lock holds until commit, so a concurrent debit cannot
		// pass this check on the same stale balance.
		if amount > wallet.Balance {
			return ErrInsufficientBalance
		}

		wallet.Balance -= amount
		if err := tx.Save(wallet); err != nil {
			return err
		}

		return tx.CreateTransaction(&models.WalletTransaction{
			WalletID:    wallet.ID,
			Amount:      amount,
			Direction:   models.DirectionDebit,
			Source:      source,
			SourceID:    sourceID,
			Description: description,
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, userID)
	return nil
}

func (s *service) Apply(ctx context.Context, userID string, data models.TransactionData) error {
	switch data.Type {
	case models.DirectionCredit:
		return s.Credit(ctx, userID, data.Amount, data.Source, data.SourceID, data.Description)
	case models.DirectionDebit:
		return s.Debit(ctx, userID, data.Amount, data.Source, data.SourceID, data.Description)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDirection, data.Type)
	}
}

func (s *service) GetWallet(ctx context.Context, userID string) (*View, error) {
	wallet, err := s.cache.GetWallet(ctx, userID)
	if err != nil {
		wallet, err = s.GetOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetWallet(ctx, wallet); err != nil {
			log.Printf("failed to cache wallet %s: %v", userID, err)
		}
	}

	txs, err := s.repo.ListTransactions(wallet.ID)
	if err != nil {
		return nil, err
	}

	return &View{Wallet: *wallet, Transactions: txs}, nil
}

func (s *service) invalidate(ctx context.Context, userID string) {
	if err := s.cache.InvalidateWallet(ctx, userID); err != nil {
		log.Printf("failed to invalidate wallet cache %s: %v", userID, err)
	}
}

// lockOrCreate locks the wallet row for the rest of the transaction,
// provisioning it first when the user has never been referenced.
func lockOrCreate(tx repositories.WalletRepository, userID string) (*models.Wallet, error) {
	wallet, err := tx.GetByUserIDForUpdate(userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, err
	}

	wallet = &models.Wallet{UserID: userID}
	if err := tx.Create(wallet); err != nil {
		if errors.Is(err, repositories.ErrDuplicateWallet) {
			return tx.GetByUserIDForUpdate(userID)
		}
		return nil, err
	}
	return wallet, nil
}

type noopCache struct{}

func (noopCache) GetWallet(context.Context, string) (*models.Wallet, error) {
	return nil, errors.New("cache disabled")
}
func (noopCache) SetWallet(context.Context, *models.Wallet) error { return nil }
func (noopCache) InvalidateWallet(context.Context, string) error  { return nil }
