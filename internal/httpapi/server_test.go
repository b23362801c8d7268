package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/CedarStreetLab/loanmarket/internal/store/gormstore"
	"github.com/CedarStreetLab/loanmarket/pkg/league"
	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

const (
	testSigningKey = "test-signing-key"
	testIssuer     = "loanmarket-test"
)

type fakeLedger struct {
	blocks map[market.BlockIndex][]market.Block
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{blocks: make(map[market.BlockIndex][]market.Block)}
}

func (ledger *fakeLedger) addTransfer(block market.BlockIndex, memo market.Memo, from market.Identity, to market.Identity, amountE8s uint64) {
	ledger.blocks[block] = append(ledger.blocks[block], market.Block{
		Transaction: market.Transaction{
			Memo: memo,
			Transfer: &market.Transfer{
				From:   market.AddressForIdentity(from),
				To:     market.AddressForIdentity(to),
				Amount: market.Tokens{E8s: amountE8s},
			},
		},
	})
}

func (ledger *fakeLedger) QueryBlocks(_ context.Context, start market.BlockIndex, _ uint64) (market.BlockRange, error) {
	return market.BlockRange{Blocks: ledger.blocks[start]}, nil
}

type noopScheduler struct{}

func (noopScheduler) ArmDiscard(time.Duration, func()) {}

func newTestRouter(test *testing.T) (*gin.Engine, *fakeLedger) {
	test.Helper()
	path := filepath.Join(test.TempDir(), "api.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		test.Fatalf("open sqlite: %v", err)
	}
	if err := gormstore.Migrate(db); err != nil {
		test.Fatalf("migrate: %v", err)
	}

	ledgerStub := newFakeLedger()
	marketService, err := market.NewService(gormstore.New(db), ledgerStub, time.Now, market.WithDiscardScheduler(noopScheduler{}))
	if err != nil {
		test.Fatalf("market service: %v", err)
	}
	leagueService, err := league.NewService(gormstore.NewLeagueStore(db))
	if err != nil {
		test.Fatalf("league service: %v", err)
	}

	cfg := Config{AuthSigningKey: testSigningKey, AuthIssuer: testIssuer}
	if err := cfg.Validate(); err != nil {
		test.Fatalf("config: %v", err)
	}
	return NewRouter(cfg, marketService, leagueService, zap.NewNop()), ledgerStub
}

func signToken(test *testing.T, subject string) string {
	test.Helper()
	claims := jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	if err != nil {
		test.Fatalf("sign token: %v", err)
	}
	return token
}

func doJSON(test *testing.T, router *gin.Engine, method string, path string, subject string, body any) (*httptest.ResponseRecorder, map[string]any) {
	test.Helper()
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			test.Fatalf("encode body: %v", err)
		}
		payload = encoded
	}
	request := httptest.NewRequest(method, path, bytes.NewReader(payload))
	request.Header.Set("Content-Type", "application/json")
	if subject != "" {
		request.Header.Set("Authorization", "Bearer "+signToken(test, subject))
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	decoded := map[string]any{}
	if recorder.Body.Len() > 0 {
		if err := json.Unmarshal(recorder.Body.Bytes(), &decoded); err != nil {
			test.Fatalf("decode response %q: %v", recorder.Body.String(), err)
		}
	}
	return recorder, decoded
}

func TestRequestsWithoutTokenAreRejected(test *testing.T) {
	test.Parallel()
	router, _ := newTestRouter(test)

	recorder, _ := doJSON(test, router, http.MethodGet, "/api/loans", "", nil)
	if recorder.Code != http.StatusUnauthorized {
		test.Fatalf("expected 401, got %d", recorder.Code)
	}

	recorder, _ = doJSON(test, router, http.MethodGet, "/healthz", "", nil)
	if recorder.Code != http.StatusOK {
		test.Fatalf("health must stay public, got %d", recorder.Code)
	}
}

func TestPayoutFlowOverHTTP(test *testing.T) {
	test.Parallel()
	router, ledgerStub := newTestRouter(test)
	const borrowerPrincipal = "borrower-principal"
	const lenderPrincipal = "lender-principal"

	recorder, borrower := doJSON(test, router, http.MethodPost, "/api/borrowers", borrowerPrincipal, gin.H{"name": "Ada"})
	if recorder.Code != http.StatusCreated {
		test.Fatalf("add borrower: %d %v", recorder.Code, borrower)
	}
	recorder, lender := doJSON(test, router, http.MethodPost, "/api/lenders", lenderPrincipal, gin.H{"name": "Grace"})
	if recorder.Code != http.StatusCreated {
		test.Fatalf("add lender: %d %v", recorder.Code, lender)
	}
	recorder, collateral := doJSON(test, router, http.MethodPost, "/api/collaterals", borrowerPrincipal, gin.H{
		"borrower_id": borrower["id"],
		"description": "vehicle",
		"value_e8s":   4000,
	})
	if recorder.Code != http.StatusCreated {
		test.Fatalf("add collateral: %d %v", recorder.Code, collateral)
	}

	recorder, loan := doJSON(test, router, http.MethodPost, "/api/loans", lenderPrincipal, gin.H{
		"borrower_id":   borrower["id"],
		"lender_id":     lender["id"],
		"collateral_id": collateral["id"],
		"amount_e8s":    1000,
		"terms":         "6 months",
	})
	if recorder.Code != http.StatusCreated {
		test.Fatalf("add loan: %d %v", recorder.Code, loan)
	}
	loanID := loan["id"].(string)

	recorder, approved := doJSON(test, router, http.MethodPost, "/api/loans/"+loanID+"/approve", lenderPrincipal, nil)
	if recorder.Code != http.StatusOK || approved["status"] != "approved" {
		test.Fatalf("approve loan: %d %v", recorder.Code, approved)
	}

	recorder, reservation := doJSON(test, router, http.MethodPost, "/api/loans/"+loanID+"/payout/reserve", lenderPrincipal, nil)
	if recorder.Code != http.StatusCreated {
		test.Fatalf("reserve payout: %d %v", recorder.Code, reservation)
	}
	memoText := reservation["memo"].(string)
	memoValue, err := strconv.ParseUint(memoText, 10, 64)
	if err != nil {
		test.Fatalf("memo must be a decimal string, got %q", memoText)
	}
	if reservation["counterparty"] != borrowerPrincipal {
		test.Fatalf("payout counterparty must be the borrower, got %v", reservation["counterparty"])
	}

	recorder, reserved := doJSON(test, router, http.MethodGet, "/api/loans/"+loanID, lenderPrincipal, nil)
	if recorder.Code != http.StatusOK || reserved["status"] != "completed" {
		test.Fatalf("loan must be completed after reserve: %d %v", recorder.Code, reserved)
	}

	lenderIdentity, _ := market.NewIdentity(lenderPrincipal)
	borrowerIdentity, _ := market.NewIdentity(borrowerPrincipal)
	ledgerStub.addTransfer(market.BlockIndex(5), market.Memo(memoValue), lenderIdentity, borrowerIdentity, 1000)

	completeBody := gin.H{
		"counterparty": borrowerPrincipal,
		"amount_e8s":   1000,
		"block":        5,
		"memo":         memoText,
	}
	recorder, completed := doJSON(test, router, http.MethodPost, "/api/loans/"+loanID+"/payout/complete", lenderPrincipal, completeBody)
	if recorder.Code != http.StatusOK {
		test.Fatalf("complete payout: %d %v", recorder.Code, completed)
	}
	if completed["status"] != "completed" {
		test.Fatalf("reservation must be completed, got %v", completed["status"])
	}
	if completed["paid_at_block"] != float64(5) {
		test.Fatalf("paid_at_block lost: %v", completed["paid_at_block"])
	}

	recorder, duplicate := doJSON(test, router, http.MethodPost, "/api/loans/"+loanID+"/payout/complete", lenderPrincipal, completeBody)
	if recorder.Code != http.StatusConflict {
		test.Fatalf("second completion must conflict: %d %v", recorder.Code, duplicate)
	}
	errorBody := duplicate["error"].(map[string]any)
	if errorBody["code"] != "payment_completed" {
		test.Fatalf("expected payment_completed code, got %v", errorBody["code"])
	}
}

func TestCompletePayoutRejectsWrongAmount(test *testing.T) {
	test.Parallel()
	router, ledgerStub := newTestRouter(test)
	const borrowerPrincipal = "borrower-principal"
	const lenderPrincipal = "lender-principal"

	_, borrower := doJSON(test, router, http.MethodPost, "/api/borrowers", borrowerPrincipal, gin.H{"name": "Ada"})
	_, lender := doJSON(test, router, http.MethodPost, "/api/lenders", lenderPrincipal, gin.H{"name": "Grace"})
	_, collateral := doJSON(test, router, http.MethodPost, "/api/collaterals", borrowerPrincipal, gin.H{
		"borrower_id": borrower["id"], "value_e8s": 4000,
	})
	_, loan := doJSON(test, router, http.MethodPost, "/api/loans", lenderPrincipal, gin.H{
		"borrower_id": borrower["id"], "lender_id": lender["id"], "collateral_id": collateral["id"], "amount_e8s": 1000,
	})
	loanID := loan["id"].(string)
	_, reservation := doJSON(test, router, http.MethodPost, "/api/loans/"+loanID+"/payout/reserve", lenderPrincipal, nil)
	memoText := reservation["memo"].(string)
	memoValue, _ := strconv.ParseUint(memoText, 10, 64)

	lenderIdentity, _ := market.NewIdentity(lenderPrincipal)
	borrowerIdentity, _ := market.NewIdentity(borrowerPrincipal)
	ledgerStub.addTransfer(market.BlockIndex(9), market.Memo(memoValue), lenderIdentity, borrowerIdentity, 999)

	recorder, body := doJSON(test, router, http.MethodPost, "/api/loans/"+loanID+"/payout/complete", lenderPrincipal, gin.H{
		"counterparty": borrowerPrincipal, "amount_e8s": 1000, "block": 9, "memo": memoText,
	})
	if recorder.Code != http.StatusUnprocessableEntity {
		test.Fatalf("expected 422 for unverified payment, got %d %v", recorder.Code, body)
	}
}

func TestLeagueFlowOverHTTP(test *testing.T) {
	test.Parallel()
	router, _ := newTestRouter(test)
	const coachPrincipal = "coach-principal"

	recorder, user := doJSON(test, router, http.MethodPost, "/api/league/users", coachPrincipal, gin.H{
		"name": "Jordan", "role": "coach",
	})
	if recorder.Code != http.StatusCreated || user["role"] != "coach" {
		test.Fatalf("register user: %d %v", recorder.Code, user)
	}

	recorder, home := doJSON(test, router, http.MethodPost, "/api/league/teams", coachPrincipal, gin.H{
		"name": "Hawks", "sport": "football",
	})
	if recorder.Code != http.StatusCreated {
		test.Fatalf("create home team: %d %v", recorder.Code, home)
	}
	recorder, away := doJSON(test, router, http.MethodPost, "/api/league/teams", coachPrincipal, gin.H{
		"name": "Wolves", "sport": "football",
	})
	if recorder.Code != http.StatusCreated {
		test.Fatalf("create away team: %d %v", recorder.Code, away)
	}

	recorder, match := doJSON(test, router, http.MethodPost, "/api/league/matches", coachPrincipal, gin.H{
		"home_team_id": home["id"], "away_team_id": away["id"], "scheduled_date": "2026-09-12",
	})
	if recorder.Code != http.StatusCreated {
		test.Fatalf("schedule match: %d %v", recorder.Code, match)
	}
	matchID := match["id"].(string)

	recorder, updated := doJSON(test, router, http.MethodPost, "/api/league/matches/"+matchID+"/result", coachPrincipal, gin.H{
		"winner_team_id": home["id"],
	})
	if recorder.Code != http.StatusOK || updated["result"] != home["id"] {
		test.Fatalf("submit result: %d %v", recorder.Code, updated)
	}

	recorder, leaderboard := doJSON(test, router, http.MethodGet, "/api/league/leaderboard/football", coachPrincipal, nil)
	if recorder.Code != http.StatusOK {
		test.Fatalf("leaderboard: %d %v", recorder.Code, leaderboard)
	}
	standings := leaderboard["standings"].([]any)
	if len(standings) != 2 {
		test.Fatalf("expected 2 standings, got %d", len(standings))
	}
	top := standings[0].(map[string]any)
	if top["points"] != float64(3) {
		test.Fatalf("winner must lead with 3 points, got %v", top["points"])
	}
}

func TestUnknownLoanReturnsNotFound(test *testing.T) {
	test.Parallel()
	router, _ := newTestRouter(test)

	recorder, body := doJSON(test, router, http.MethodGet, "/api/loans/missing", "someone", nil)
	if recorder.Code != http.StatusNotFound {
		test.Fatalf("expected 404, got %d %v", recorder.Code, body)
	}
}
