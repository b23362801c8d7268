package market

import (
	"context"
	"fmt"
)

// AddBorrower registers a borrower profile owned by the caller.
func (service *Service) AddBorrower(ctx context.Context, caller Identity, input BorrowerInput) (Borrower, error) {
	if caller.IsZero() {
		return Borrower{}, fmt.Errorf("%w: caller identity is required", ErrInvalidIdentity)
	}
	if err := input.Validate(); err != nil {
		return Borrower{}, err
	}
	borrower := Borrower{
		ID:             service.newID(),
		Owner:          caller,
		Name:           input.Name,
		Email:          input.Email,
		CreatedUnixUTC: service.nowFn().UTC().Unix(),
	}
	if err := service.store.PutBorrower(ctx, borrower); err != nil {
		return Borrower{}, err
	}
	return borrower, nil
}

// UpdateBorrower applies the mutable profile fields.
func (service *Service) UpdateBorrower(ctx context.Context, borrowerID string, input BorrowerInput) (Borrower, error) {
	if borrowerID == "" {
		return Borrower{}, fmt.Errorf("%w: borrower id is required", ErrInvalidPayload)
	}
	if err := input.Validate(); err != nil {
		return Borrower{}, err
	}
	var borrower Borrower
	err := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		current, err := transactionStore.GetBorrower(ctx, borrowerID)
		if err != nil {
			return err
		}
		current.Name = input.Name
		current.Email = input.Email
		borrower = current
		return transactionStore.PutBorrower(ctx, current)
	})
	if err != nil {
		return Borrower{}, err
	}
	return borrower, nil
}

// GetBorrowers returns every borrower in insertion order.
func (service *Service) GetBorrowers(ctx context.Context) ([]Borrower, error) {
	return service.store.ListBorrowers(ctx)
}

// GetBorrowerByOwner returns the borrower profile owned by the caller.
func (service *Service) GetBorrowerByOwner(ctx context.Context, caller Identity) (Borrower, error) {
	if caller.IsZero() {
		return Borrower{}, fmt.Errorf("%w: caller identity is required", ErrInvalidIdentity)
	}
	return service.store.FindBorrowerByOwner(ctx, caller)
}

// AddLender registers a lender profile owned by the caller.
func (service *Service) AddLender(ctx context.Context, caller Identity, input LenderInput) (Lender, error) {
	if caller.IsZero() {
		return Lender{}, fmt.Errorf("%w: caller identity is required", ErrInvalidIdentity)
	}
	if err := input.Validate(); err != nil {
		return Lender{}, err
	}
	lender := Lender{
		ID:             service.newID(),
		Owner:          caller,
		Name:           input.Name,
		Email:          input.Email,
		CreatedUnixUTC: service.nowFn().UTC().Unix(),
	}
	if err := service.store.PutLender(ctx, lender); err != nil {
		return Lender{}, err
	}
	return lender, nil
}

// UpdateLender applies the mutable profile fields.
func (service *Service) UpdateLender(ctx context.Context, lenderID string, input LenderInput) (Lender, error) {
	if lenderID == "" {
		return Lender{}, fmt.Errorf("%w: lender id is required", ErrInvalidPayload)
	}
	if err := input.Validate(); err != nil {
		return Lender{}, err
	}
	var lender Lender
	err := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		current, err := transactionStore.GetLender(ctx, lenderID)
		if err != nil {
			return err
		}
		current.Name = input.Name
		current.Email = input.Email
		lender = current
		return transactionStore.PutLender(ctx, current)
	})
	if err != nil {
		return Lender{}, err
	}
	return lender, nil
}

// GetLenders returns every lender in insertion order.
func (service *Service) GetLenders(ctx context.Context) ([]Lender, error) {
	return service.store.ListLenders(ctx)
}

// GetLenderByOwner returns the lender profile owned by the caller.
func (service *Service) GetLenderByOwner(ctx context.Context, caller Identity) (Lender, error) {
	if caller.IsZero() {
		return Lender{}, fmt.Errorf("%w: caller identity is required", ErrInvalidIdentity)
	}
	return service.store.FindLenderByOwner(ctx, caller)
}

// AddCollateral records a collateral owned by a borrower and appends it to
// the borrower's back-reference list.
func (service *Service) AddCollateral(ctx context.Context, input CollateralInput) (Collateral, error) {
	if err := input.Validate(); err != nil {
		return Collateral{}, err
	}
	var collateral Collateral
	err := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		borrower, err := transactionStore.GetBorrower(ctx, input.BorrowerID)
		if err != nil {
			return err
		}
		collateral = Collateral{
			ID:             service.newID(),
			BorrowerID:     borrower.ID,
			Description:    input.Description,
			ValueE8s:       input.ValueE8s,
			Status:         CollateralStatusAvailable,
			CreatedUnixUTC: service.nowFn().UTC().Unix(),
		}
		if err := transactionStore.PutCollateral(ctx, collateral); err != nil {
			return err
		}
		borrower.CollateralIDs = append(borrower.CollateralIDs, collateral.ID)
		return transactionStore.PutBorrower(ctx, borrower)
	})
	if err != nil {
		return Collateral{}, err
	}
	return collateral, nil
}

// GetCollaterals returns every collateral in insertion order.
func (service *Service) GetCollaterals(ctx context.Context) ([]Collateral, error) {
	return service.store.ListCollaterals(ctx)
}
