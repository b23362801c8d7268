package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

type marketHandler struct {
	logger  *zap.Logger
	service *market.Service
}

type borrowerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (handler *marketHandler) handleAddBorrower(ctx *gin.Context) {
	caller, ok := callerIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing identity"))
		return
	}
	var request borrowerRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	borrower, err := handler.service.AddBorrower(ctx.Request.Context(), caller, market.BorrowerInput{Name: request.Name, Email: request.Email})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, borrowerToPayload(borrower))
}

func (handler *marketHandler) handleUpdateBorrower(ctx *gin.Context) {
	var request borrowerRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	borrower, err := handler.service.UpdateBorrower(ctx.Request.Context(), ctx.Param("id"), market.BorrowerInput{Name: request.Name, Email: request.Email})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, borrowerToPayload(borrower))
}

func (handler *marketHandler) handleListBorrowers(ctx *gin.Context) {
	borrowers, err := handler.service.GetBorrowers(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	payloads := make([]borrowerPayload, 0, len(borrowers))
	for _, borrower := range borrowers {
		payloads = append(payloads, borrowerToPayload(borrower))
	}
	ctx.JSON(http.StatusOK, gin.H{"borrowers": payloads})
}

func (handler *marketHandler) handleBorrowerProfile(ctx *gin.Context) {
	caller, ok := callerIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing identity"))
		return
	}
	borrower, err := handler.service.GetBorrowerByOwner(ctx.Request.Context(), caller)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, borrowerToPayload(borrower))
}

type lenderRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (handler *marketHandler) handleAddLender(ctx *gin.Context) {
	caller, ok := callerIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing identity"))
		return
	}
	var request lenderRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	lender, err := handler.service.AddLender(ctx.Request.Context(), caller, market.LenderInput{Name: request.Name, Email: request.Email})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, lenderToPayload(lender))
}

func (handler *marketHandler) handleUpdateLender(ctx *gin.Context) {
	var request lenderRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	lender, err := handler.service.UpdateLender(ctx.Request.Context(), ctx.Param("id"), market.LenderInput{Name: request.Name, Email: request.Email})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, lenderToPayload(lender))
}

func (handler *marketHandler) handleListLenders(ctx *gin.Context) {
	lenders, err := handler.service.GetLenders(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	payloads := make([]lenderPayload, 0, len(lenders))
	for _, lender := range lenders {
		payloads = append(payloads, lenderToPayload(lender))
	}
	ctx.JSON(http.StatusOK, gin.H{"lenders": payloads})
}

func (handler *marketHandler) handleLenderProfile(ctx *gin.Context) {
	caller, ok := callerIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing identity"))
		return
	}
	lender, err := handler.service.GetLenderByOwner(ctx.Request.Context(), caller)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, lenderToPayload(lender))
}

// handleLenderLoans filters a lender's loans by lifecycle stage.
func (handler *marketHandler) handleLenderLoans(ctx *gin.Context) {
	lenderID := ctx.Param("id")
	var (
		loans []market.Loan
		err   error
	)
	switch status := ctx.Query("status"); status {
	case "pending":
		loans, err = handler.service.GetLenderPendingLoans(ctx.Request.Context(), lenderID)
	case "active":
		loans, err = handler.service.GetLenderActiveLoans(ctx.Request.Context(), lenderID)
	case "completed":
		loans, err = handler.service.GetLenderCompletedLoans(ctx.Request.Context(), lenderID)
	default:
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "status must be pending, active, or completed"))
		return
	}
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"loans": loansToPayload(loans)})
}

type collateralRequest struct {
	BorrowerID  string `json:"borrower_id"`
	Description string `json:"description"`
	ValueE8s    uint64 `json:"value_e8s"`
}

func (handler *marketHandler) handleAddCollateral(ctx *gin.Context) {
	var request collateralRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	collateral, err := handler.service.AddCollateral(ctx.Request.Context(), market.CollateralInput{
		BorrowerID:  request.BorrowerID,
		Description: request.Description,
		ValueE8s:    request.ValueE8s,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, collateralToPayload(collateral))
}

func (handler *marketHandler) handleListCollaterals(ctx *gin.Context) {
	collaterals, err := handler.service.GetCollaterals(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	payloads := make([]collateralPayload, 0, len(collaterals))
	for _, collateral := range collaterals {
		payloads = append(payloads, collateralToPayload(collateral))
	}
	ctx.JSON(http.StatusOK, gin.H{"collaterals": payloads})
}

type loanRequest struct {
	BorrowerID   string   `json:"borrower_id"`
	LenderID     string   `json:"lender_id"`
	CollateralID string   `json:"collateral_id"`
	AmountE8s    uint64   `json:"amount_e8s"`
	Terms        string   `json:"terms"`
	DueDate      string   `json:"due_date"`
	GuarantorIDs []string `json:"guarantor_ids"`
}

func (handler *marketHandler) handleAddLoan(ctx *gin.Context) {
	var request loanRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	loan, err := handler.service.AddLoan(ctx.Request.Context(), market.LoanInput{
		BorrowerID:   request.BorrowerID,
		LenderID:     request.LenderID,
		CollateralID: request.CollateralID,
		AmountE8s:    request.AmountE8s,
		Terms:        request.Terms,
		DueDate:      request.DueDate,
		GuarantorIDs: request.GuarantorIDs,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, loanToPayload(loan))
}

type loanUpdateRequest struct {
	Terms        string   `json:"terms"`
	DueDate      string   `json:"due_date"`
	GuarantorIDs []string `json:"guarantor_ids"`
}

func (handler *marketHandler) handleUpdateLoan(ctx *gin.Context) {
	var request loanUpdateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	loan, err := handler.service.UpdateLoan(ctx.Request.Context(), market.LoanUpdate{
		ID:           ctx.Param("id"),
		Terms:        request.Terms,
		DueDate:      request.DueDate,
		GuarantorIDs: request.GuarantorIDs,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, loanToPayload(loan))
}

func (handler *marketHandler) handleGetLoan(ctx *gin.Context) {
	loan, err := handler.service.GetLoan(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, loanToPayload(loan))
}

func (handler *marketHandler) handleListLoans(ctx *gin.Context) {
	loans, err := handler.service.GetLoans(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"loans": loansToPayload(loans)})
}

func (handler *marketHandler) handleListActiveLoans(ctx *gin.Context) {
	loans, err := handler.service.GetActiveLoans(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"loans": loansToPayload(loans)})
}

func (handler *marketHandler) handleApproveLoan(ctx *gin.Context) {
	loan, err := handler.service.ApproveLoan(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, loanToPayload(loan))
}

func (handler *marketHandler) handleRejectLoan(ctx *gin.Context) {
	loan, err := handler.service.RejectLoan(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, loanToPayload(loan))
}

func (handler *marketHandler) handleLoanRepayments(ctx *gin.Context) {
	repayments, err := handler.service.GetRepayments(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	payloads := make([]repaymentPayload, 0, len(repayments))
	for _, repayment := range repayments {
		payloads = append(payloads, repaymentToPayload(repayment))
	}
	ctx.JSON(http.StatusOK, gin.H{"repayments": payloads})
}

type requestInputRequest struct {
	LoanID      string `json:"loan_id"`
	Description string `json:"description"`
	AmountE8s   uint64 `json:"amount_e8s"`
}

func (handler *marketHandler) handleAddRequest(ctx *gin.Context) {
	caller, ok := callerIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing identity"))
		return
	}
	var request requestInputRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	loanRequest, err := handler.service.AddRequest(ctx.Request.Context(), caller, market.RequestInput{
		LoanID:      request.LoanID,
		Description: request.Description,
		AmountE8s:   request.AmountE8s,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, requestToPayload(loanRequest))
}

func (handler *marketHandler) handleGetRequest(ctx *gin.Context) {
	request, err := handler.service.GetRequest(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, requestToPayload(request))
}

func (handler *marketHandler) handleListRequests(ctx *gin.Context) {
	requests, err := handler.service.GetRequests(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	payloads := make([]requestPayload, 0, len(requests))
	for _, request := range requests {
		payloads = append(payloads, requestToPayload(request))
	}
	ctx.JSON(http.StatusOK, gin.H{"requests": payloads})
}

func (handler *marketHandler) handleSelectRequest(ctx *gin.Context) {
	request, err := handler.service.SelectRequest(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, requestToPayload(request))
}

func (handler *marketHandler) handleLoanRequests(ctx *gin.Context) {
	requests, err := handler.service.GetLoanRequests(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	payloads := make([]requestPayload, 0, len(requests))
	for _, request := range requests {
		payloads = append(payloads, requestToPayload(request))
	}
	ctx.JSON(http.StatusOK, gin.H{"requests": payloads})
}

// handleAddress returns the ledger account address derived from the
// caller identity, so clients know where to send and expect transfers.
func (handler *marketHandler) handleAddress(ctx *gin.Context) {
	caller, ok := callerIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing identity"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"address": string(market.AddressForIdentity(caller))})
}

type reserveRequest struct {
	AmountE8s uint64 `json:"amount_e8s"`
}

func (handler *marketHandler) handleReservePayout(ctx *gin.Context) {
	caller, ok := callerIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing identity"))
		return
	}
	reservation, err := handler.service.ReservePayout(ctx.Request.Context(), caller, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, reservationToPayload(reservation))
}

func (handler *marketHandler) handleReserveRepayment(ctx *gin.Context) {
	caller, ok := callerIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing identity"))
		return
	}
	var request reserveRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	amount, err := market.NewAmount(request.AmountE8s)
	if err != nil {
		respondError(ctx, err)
		return
	}
	reservation, err := handler.service.ReserveRepayment(ctx.Request.Context(), caller, ctx.Param("id"), amount)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, reservationToPayload(reservation))
}

func (handler *marketHandler) handleReserveSavings(ctx *gin.Context) {
	caller, ok := callerIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing identity"))
		return
	}
	var request reserveRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	amount, err := market.NewAmount(request.AmountE8s)
	if err != nil {
		respondError(ctx, err)
		return
	}
	reservation, err := handler.service.ReserveSavings(ctx.Request.Context(), caller, ctx.Param("id"), amount)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, reservationToPayload(reservation))
}

// completeRequest carries the proof of a ledger transfer: who the
// counterparty was, how much moved, the block to check, and the memo
// from the matching reservation.
type completeRequest struct {
	Counterparty string `json:"counterparty"`
	AmountE8s    uint64 `json:"amount_e8s"`
	Block        uint64 `json:"block"`
	Memo         string `json:"memo"`
}

func (request completeRequest) parse() (market.Identity, market.Amount, market.BlockIndex, market.Memo, error) {
	counterparty, err := market.NewIdentity(request.Counterparty)
	if err != nil {
		return market.Identity{}, 0, 0, 0, err
	}
	amount, err := market.NewAmount(request.AmountE8s)
	if err != nil {
		return market.Identity{}, 0, 0, 0, err
	}
	memoValue, err := strconv.ParseUint(request.Memo, 10, 64)
	if err != nil {
		return market.Identity{}, 0, 0, 0, market.ErrInvalidPayload
	}
	return counterparty, amount, market.BlockIndex(request.Block), market.Memo(memoValue), nil
}

func (handler *marketHandler) handleCompletePayout(ctx *gin.Context) {
	handler.completeReservation(ctx, handler.service.CompletePayout)
}

func (handler *marketHandler) handleCompleteRepayment(ctx *gin.Context) {
	handler.completeReservation(ctx, handler.service.CompleteRepayment)
}

func (handler *marketHandler) handleCompleteSavings(ctx *gin.Context) {
	handler.completeReservation(ctx, handler.service.CompleteSavings)
}

type completeFunc func(ctx context.Context, caller market.Identity, counterparty market.Identity, subjectID string, amount market.Amount, block market.BlockIndex, memo market.Memo) (market.Reservation, error)

func (handler *marketHandler) completeReservation(ctx *gin.Context, complete completeFunc) {
	caller, ok := callerIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing identity"))
		return
	}
	var request completeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	counterparty, amount, block, memo, err := request.parse()
	if err != nil {
		respondError(ctx, err)
		return
	}
	reservation, err := complete(ctx.Request.Context(), caller, counterparty, ctx.Param("id"), amount, block, memo)
	if err != nil {
		handler.logger.Warn("reservation completion failed",
			zap.String("subject_id", ctx.Param("id")),
			zap.Error(err))
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, reservationToPayload(reservation))
}
