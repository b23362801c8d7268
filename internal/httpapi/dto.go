package httpapi

import (
	"strconv"

	"github.com/CedarStreetLab/loanmarket/pkg/league"
	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

// Memos are formatted as decimal strings in every payload: a raw uint64
// does not survive a JavaScript JSON parser.

type reservationPayload struct {
	Kind           string  `json:"kind"`
	SubjectID      string  `json:"subject_id"`
	Memo           string  `json:"memo"`
	PriceE8s       uint64  `json:"price_e8s"`
	Status         string  `json:"status"`
	Counterparty   string  `json:"counterparty"`
	PaidAtBlock    *uint64 `json:"paid_at_block,omitempty"`
	CreatedUnixUTC int64   `json:"created_unix_utc"`
}

func reservationToPayload(reservation market.Reservation) reservationPayload {
	payload := reservationPayload{
		Kind:           reservation.Kind.String(),
		SubjectID:      reservation.SubjectID,
		Memo:           strconv.FormatUint(uint64(reservation.Memo), 10),
		PriceE8s:       reservation.Price.Uint64(),
		Status:         reservation.Status.String(),
		Counterparty:   reservation.Counterparty.String(),
		CreatedUnixUTC: reservation.CreatedUnixUTC,
	}
	if reservation.PaidAtBlock != nil {
		block := uint64(*reservation.PaidAtBlock)
		payload.PaidAtBlock = &block
	}
	return payload
}

type borrowerPayload struct {
	ID             string   `json:"id"`
	Owner          string   `json:"owner"`
	Name           string   `json:"name"`
	Email          string   `json:"email,omitempty"`
	LoanIDs        []string `json:"loan_ids"`
	CollateralIDs  []string `json:"collateral_ids"`
	CreatedUnixUTC int64    `json:"created_unix_utc"`
}

func borrowerToPayload(borrower market.Borrower) borrowerPayload {
	return borrowerPayload{
		ID:             borrower.ID,
		Owner:          borrower.Owner.String(),
		Name:           borrower.Name,
		Email:          borrower.Email,
		LoanIDs:        emptyIfNil(borrower.LoanIDs),
		CollateralIDs:  emptyIfNil(borrower.CollateralIDs),
		CreatedUnixUTC: borrower.CreatedUnixUTC,
	}
}

type lenderPayload struct {
	ID             string `json:"id"`
	Owner          string `json:"owner"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	SavingsE8s     uint64 `json:"savings_e8s"`
	CreatedUnixUTC int64  `json:"created_unix_utc"`
}

func lenderToPayload(lender market.Lender) lenderPayload {
	return lenderPayload{
		ID:             lender.ID,
		Owner:          lender.Owner.String(),
		Name:           lender.Name,
		Email:          lender.Email,
		SavingsE8s:     lender.SavingsE8s,
		CreatedUnixUTC: lender.CreatedUnixUTC,
	}
}

type collateralPayload struct {
	ID             string `json:"id"`
	BorrowerID     string `json:"borrower_id"`
	Description    string `json:"description,omitempty"`
	ValueE8s       uint64 `json:"value_e8s"`
	Status         string `json:"status"`
	CreatedUnixUTC int64  `json:"created_unix_utc"`
}

func collateralToPayload(collateral market.Collateral) collateralPayload {
	return collateralPayload{
		ID:             collateral.ID,
		BorrowerID:     collateral.BorrowerID,
		Description:    collateral.Description,
		ValueE8s:       collateral.ValueE8s,
		Status:         string(collateral.Status),
		CreatedUnixUTC: collateral.CreatedUnixUTC,
	}
}

type loanPayload struct {
	ID             string            `json:"id"`
	Status         string            `json:"status"`
	Borrower       borrowerPayload   `json:"borrower"`
	Lender         lenderPayload     `json:"lender"`
	Collateral     collateralPayload `json:"collateral"`
	AmountE8s      uint64            `json:"amount_e8s"`
	RepaidE8s      uint64            `json:"repaid_e8s"`
	Terms          string            `json:"terms,omitempty"`
	DueDate        string            `json:"due_date,omitempty"`
	GuarantorIDs   []string          `json:"guarantor_ids"`
	CreatedUnixUTC int64             `json:"created_unix_utc"`
}

func loanToPayload(loan market.Loan) loanPayload {
	return loanPayload{
		ID:             loan.ID,
		Status:         loan.Status.String(),
		Borrower:       borrowerToPayload(loan.Borrower),
		Lender:         lenderToPayload(loan.Lender),
		Collateral:     collateralToPayload(loan.Collateral),
		AmountE8s:      loan.AmountE8s,
		RepaidE8s:      loan.RepaidE8s,
		Terms:          loan.Terms,
		DueDate:        loan.DueDate,
		GuarantorIDs:   emptyIfNil(loan.GuarantorIDs),
		CreatedUnixUTC: loan.CreatedUnixUTC,
	}
}

func loansToPayload(loans []market.Loan) []loanPayload {
	payloads := make([]loanPayload, 0, len(loans))
	for _, loan := range loans {
		payloads = append(payloads, loanToPayload(loan))
	}
	return payloads
}

type repaymentPayload struct {
	ID             string `json:"id"`
	LoanID         string `json:"loan_id"`
	Payer          string `json:"payer"`
	AmountE8s      uint64 `json:"amount_e8s"`
	CreatedUnixUTC int64  `json:"created_unix_utc"`
}

func repaymentToPayload(repayment market.Repayment) repaymentPayload {
	return repaymentPayload{
		ID:             repayment.ID,
		LoanID:         repayment.LoanID,
		Payer:          repayment.Payer.String(),
		AmountE8s:      repayment.AmountE8s,
		CreatedUnixUTC: repayment.CreatedUnixUTC,
	}
}

type requestPayload struct {
	ID             string `json:"id"`
	LoanID         string `json:"loan_id"`
	Applicant      string `json:"applicant"`
	Description    string `json:"description,omitempty"`
	AmountE8s      uint64 `json:"amount_e8s"`
	Selected       bool   `json:"selected"`
	CreatedUnixUTC int64  `json:"created_unix_utc"`
}

func requestToPayload(request market.LoanRequest) requestPayload {
	return requestPayload{
		ID:             request.ID,
		LoanID:         request.LoanID,
		Applicant:      request.Applicant.String(),
		Description:    request.Description,
		AmountE8s:      request.AmountE8s,
		Selected:       request.Selected,
		CreatedUnixUTC: request.CreatedUnixUTC,
	}
}

type userPayload struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

func userToPayload(user league.User) userPayload {
	return userPayload{
		ID:    user.ID,
		Owner: user.Owner.String(),
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
}

type teamPayload struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Coach   string   `json:"coach"`
	Players []string `json:"players"`
	Sport   string   `json:"sport"`
}

func teamToPayload(team league.Team) teamPayload {
	players := make([]string, 0, len(team.Players))
	for _, player := range team.Players {
		players = append(players, player.String())
	}
	return teamPayload{
		ID:      team.ID,
		Name:    team.Name,
		Coach:   team.Coach.String(),
		Players: players,
		Sport:   string(team.Sport),
	}
}

type matchPayload struct {
	ID            string      `json:"id"`
	HomeTeam      teamPayload `json:"home_team"`
	AwayTeam      teamPayload `json:"away_team"`
	Sport         string      `json:"sport"`
	ScheduledDate string      `json:"scheduled_date"`
	Result        *string     `json:"result,omitempty"`
}

func matchToPayload(match league.Match) matchPayload {
	return matchPayload{
		ID:            match.ID,
		HomeTeam:      teamToPayload(match.HomeTeam),
		AwayTeam:      teamToPayload(match.AwayTeam),
		Sport:         string(match.Sport),
		ScheduledDate: match.ScheduledDate,
		Result:        match.Result,
	}
}

type tournamentPayload struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Structure string   `json:"structure"`
	TeamIDs   []string `json:"team_ids"`
	Sport     string   `json:"sport"`
}

func tournamentToPayload(tournament league.Tournament) tournamentPayload {
	return tournamentPayload{
		ID:        tournament.ID,
		Name:      tournament.Name,
		Structure: string(tournament.Structure),
		TeamIDs:   emptyIfNil(tournament.TeamIDs),
		Sport:     string(tournament.Sport),
	}
}

type leaguePayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Sport     string `json:"sport"`
	CreatedBy string `json:"created_by"`
}

func leagueToPayload(record league.League) leaguePayload {
	return leaguePayload{
		ID:        record.ID,
		Name:      record.Name,
		Sport:     string(record.Sport),
		CreatedBy: record.CreatedBy.String(),
	}
}

type standingPayload struct {
	Team   teamPayload `json:"team"`
	Points int         `json:"points"`
}

func standingsToPayload(standings []league.Standing) []standingPayload {
	payloads := make([]standingPayload, 0, len(standings))
	for _, standing := range standings {
		payloads = append(payloads, standingPayload{Team: teamToPayload(standing.Team), Points: standing.Points})
	}
	return payloads
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
