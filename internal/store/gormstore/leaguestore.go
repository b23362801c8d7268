package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/CedarStreetLab/loanmarket/pkg/league"
	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

const (
	errorSubjectUser       = "user"
	errorSubjectLeague     = "league"
	errorSubjectTournament = "tournament"
	errorSubjectTeam       = "team"
	errorSubjectMatch      = "match"
)

// LeagueStore implements league.Store using GORM. It shares the
// database handle with Store so both domains migrate and transact
// against the same backend.
type LeagueStore struct {
	db *gorm.DB
}

// NewLeagueStore returns a LeagueStore backed by gorm.DB.
func NewLeagueStore(db *gorm.DB) *LeagueStore {
	return &LeagueStore{db: db}
}

// WithTx executes fn within a transaction.
func (store *LeagueStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore league.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &LeagueStore{db: transaction})
	})
}

func (store *LeagueStore) PutUser(ctx context.Context, user league.User) error {
	row := LeagueUserRow{
		UserID:    user.ID,
		Owner:     user.Owner.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: time.Now().UTC(),
	}
	if err := store.db.WithContext(ctx).Save(&row).Error; err != nil {
		return wrapStoreError(errorSubjectUser, errorCodePut, err)
	}
	return nil
}

func (store *LeagueStore) ListUsers(ctx context.Context) ([]league.User, error) {
	var rows []LeagueUserRow
	err := store.db.WithContext(ctx).Order("created_at ASC, user_id ASC").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectUser, errorCodeList, err)
	}
	users := make([]league.User, 0, len(rows))
	for _, row := range rows {
		owner, err := market.NewIdentity(row.Owner)
		if err != nil {
			return nil, wrapStoreError(errorSubjectUser, errorCodeInvalid, err)
		}
		users = append(users, league.User{
			ID:    row.UserID,
			Owner: owner,
			Name:  row.Name,
			Email: row.Email,
			Role:  league.Role(row.Role),
		})
	}
	return users, nil
}

func (store *LeagueStore) PutLeague(ctx context.Context, record league.League) error {
	row := LeagueRow{
		LeagueID:  record.ID,
		Name:      record.Name,
		Sport:     string(record.Sport),
		CreatedBy: record.CreatedBy.String(),
		CreatedAt: time.Now().UTC(),
	}
	if err := store.db.WithContext(ctx).Save(&row).Error; err != nil {
		return wrapStoreError(errorSubjectLeague, errorCodePut, err)
	}
	return nil
}

func (store *LeagueStore) ListLeagues(ctx context.Context) ([]league.League, error) {
	var rows []LeagueRow
	err := store.db.WithContext(ctx).Order("created_at ASC, league_id ASC").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectLeague, errorCodeList, err)
	}
	leagues := make([]league.League, 0, len(rows))
	for _, row := range rows {
		createdBy, err := market.NewIdentity(row.CreatedBy)
		if err != nil {
			return nil, wrapStoreError(errorSubjectLeague, errorCodeInvalid, err)
		}
		leagues = append(leagues, league.League{
			ID:        row.LeagueID,
			Name:      row.Name,
			Sport:     league.SportType(row.Sport),
			CreatedBy: createdBy,
		})
	}
	return leagues, nil
}

func (store *LeagueStore) PutTournament(ctx context.Context, tournament league.Tournament) error {
	teamIDs, err := encodeStringList(tournament.TeamIDs)
	if err != nil {
		return wrapStoreError(errorSubjectTournament, errorCodeInvalid, err)
	}
	row := TournamentRow{
		TournamentID: tournament.ID,
		Name:         tournament.Name,
		Structure:    string(tournament.Structure),
		TeamIDs:      teamIDs,
		Sport:        string(tournament.Sport),
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.db.WithContext(ctx).Save(&row).Error; err != nil {
		return wrapStoreError(errorSubjectTournament, errorCodePut, err)
	}
	return nil
}

func (store *LeagueStore) ListTournaments(ctx context.Context) ([]league.Tournament, error) {
	var rows []TournamentRow
	err := store.db.WithContext(ctx).Order("created_at ASC, tournament_id ASC").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectTournament, errorCodeList, err)
	}
	tournaments := make([]league.Tournament, 0, len(rows))
	for _, row := range rows {
		teamIDs, err := decodeStringList(row.TeamIDs)
		if err != nil {
			return nil, wrapStoreError(errorSubjectTournament, errorCodeInvalid, err)
		}
		tournaments = append(tournaments, league.Tournament{
			ID:        row.TournamentID,
			Name:      row.Name,
			Structure: league.TournamentStructure(row.Structure),
			TeamIDs:   teamIDs,
			Sport:     league.SportType(row.Sport),
		})
	}
	return tournaments, nil
}

func (store *LeagueStore) GetTeam(ctx context.Context, teamID string) (league.Team, error) {
	var row TeamRow
	err := store.db.WithContext(ctx).Where("team_id = ?", teamID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return league.Team{}, wrapStoreError(errorSubjectTeam, errorCodeGet, league.ErrTeamNotFound)
	}
	if err != nil {
		return league.Team{}, wrapStoreError(errorSubjectTeam, errorCodeGet, err)
	}
	return mapTeamRow(row)
}

func (store *LeagueStore) PutTeam(ctx context.Context, team league.Team) error {
	players, err := encodeIdentityList(team.Players)
	if err != nil {
		return wrapStoreError(errorSubjectTeam, errorCodeInvalid, err)
	}
	row := TeamRow{
		TeamID:    team.ID,
		Name:      team.Name,
		Coach:     team.Coach.String(),
		Players:   players,
		Sport:     string(team.Sport),
		CreatedAt: time.Now().UTC(),
	}
	if err := store.db.WithContext(ctx).Save(&row).Error; err != nil {
		return wrapStoreError(errorSubjectTeam, errorCodePut, err)
	}
	return nil
}

func (store *LeagueStore) ListTeams(ctx context.Context) ([]league.Team, error) {
	var rows []TeamRow
	err := store.db.WithContext(ctx).Order("created_at ASC, team_id ASC").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectTeam, errorCodeList, err)
	}
	teams := make([]league.Team, 0, len(rows))
	for _, row := range rows {
		team, err := mapTeamRow(row)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, nil
}

func (store *LeagueStore) GetMatch(ctx context.Context, matchID string) (league.Match, error) {
	var row MatchRow
	err := store.db.WithContext(ctx).Where("match_id = ?", matchID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return league.Match{}, wrapStoreError(errorSubjectMatch, errorCodeGet, league.ErrMatchNotFound)
	}
	if err != nil {
		return league.Match{}, wrapStoreError(errorSubjectMatch, errorCodeGet, err)
	}
	return mapMatchRow(row)
}

func (store *LeagueStore) PutMatch(ctx context.Context, match league.Match) error {
	homeTeam, err := json.Marshal(match.HomeTeam)
	if err != nil {
		return wrapStoreError(errorSubjectMatch, errorCodeInvalid, err)
	}
	awayTeam, err := json.Marshal(match.AwayTeam)
	if err != nil {
		return wrapStoreError(errorSubjectMatch, errorCodeInvalid, err)
	}
	row := MatchRow{
		MatchID:       match.ID,
		HomeTeam:      homeTeam,
		AwayTeam:      awayTeam,
		Sport:         string(match.Sport),
		ScheduledDate: match.ScheduledDate,
		Result:        match.Result,
		CreatedAt:     time.Now().UTC(),
	}
	if err := store.db.WithContext(ctx).Save(&row).Error; err != nil {
		return wrapStoreError(errorSubjectMatch, errorCodePut, err)
	}
	return nil
}

func (store *LeagueStore) ListMatches(ctx context.Context) ([]league.Match, error) {
	var rows []MatchRow
	err := store.db.WithContext(ctx).Order("created_at ASC, match_id ASC").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectMatch, errorCodeList, err)
	}
	matches := make([]league.Match, 0, len(rows))
	for _, row := range rows {
		match, err := mapMatchRow(row)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func mapTeamRow(row TeamRow) (league.Team, error) {
	coach, err := market.NewIdentity(row.Coach)
	if err != nil {
		return league.Team{}, wrapStoreError(errorSubjectTeam, errorCodeInvalid, err)
	}
	players, err := decodeIdentityList(row.Players)
	if err != nil {
		return league.Team{}, wrapStoreError(errorSubjectTeam, errorCodeInvalid, err)
	}
	return league.Team{
		ID:      row.TeamID,
		Name:    row.Name,
		Coach:   coach,
		Players: players,
		Sport:   league.SportType(row.Sport),
	}, nil
}

func mapMatchRow(row MatchRow) (league.Match, error) {
	var homeTeam league.Team
	if err := json.Unmarshal(row.HomeTeam, &homeTeam); err != nil {
		return league.Match{}, wrapStoreError(errorSubjectMatch, errorCodeInvalid, err)
	}
	var awayTeam league.Team
	if err := json.Unmarshal(row.AwayTeam, &awayTeam); err != nil {
		return league.Match{}, wrapStoreError(errorSubjectMatch, errorCodeInvalid, err)
	}
	return league.Match{
		ID:            row.MatchID,
		HomeTeam:      homeTeam,
		AwayTeam:      awayTeam,
		Sport:         league.SportType(row.Sport),
		ScheduledDate: row.ScheduledDate,
		Result:        row.Result,
	}, nil
}

func encodeIdentityList(identities []market.Identity) (datatypes.JSON, error) {
	if len(identities) == 0 {
		return datatypes.JSON([]byte(emptyJSONArray)), nil
	}
	encoded, err := json.Marshal(identities)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}

func decodeIdentityList(raw datatypes.JSON) ([]market.Identity, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var identities []market.Identity
	if err := json.Unmarshal(raw, &identities); err != nil {
		return nil, err
	}
	return identities, nil
}
