package league

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

// Service implements the league operations on top of a Store.
type Service struct {
	store Store
	newID func() string
}

// ServiceOption customizes Service construction.
type ServiceOption func(service *Service)

// WithIDGenerator overrides the record identifier generator.
func WithIDGenerator(generate func() string) ServiceOption {
	return func(service *Service) {
		service.newID = generate
	}
}

// NewService wires a league service around the provided store.
func NewService(store Store, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, newID: uuid.NewString}
	for _, option := range options {
		option(service)
	}
	return service, nil
}

// RegisterUser records a league participant owned by the caller.
func (service *Service) RegisterUser(ctx context.Context, caller market.Identity, input UserInput) (User, error) {
	if err := input.Validate(); err != nil {
		return User{}, err
	}
	user := User{
		ID:    service.newID(),
		Owner: caller,
		Name:  input.Name,
		Email: input.Email,
		Role:  input.Role,
	}
	if err := service.store.PutUser(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// GetUsers lists every registered user.
func (service *Service) GetUsers(ctx context.Context) ([]User, error) {
	return service.store.ListUsers(ctx)
}

// CreateLeague records a league created by the caller.
func (service *Service) CreateLeague(ctx context.Context, caller market.Identity, input LeagueInput) (League, error) {
	if err := input.Validate(); err != nil {
		return League{}, err
	}
	record := League{
		ID:        service.newID(),
		Name:      input.Name,
		Sport:     input.Sport,
		CreatedBy: caller,
	}
	if err := service.store.PutLeague(ctx, record); err != nil {
		return League{}, err
	}
	return record, nil
}

// GetLeagues lists every league.
func (service *Service) GetLeagues(ctx context.Context) ([]League, error) {
	return service.store.ListLeagues(ctx)
}

// CreateTournament records a tournament over the referenced teams.
func (service *Service) CreateTournament(ctx context.Context, input TournamentInput) (Tournament, error) {
	if err := input.Validate(); err != nil {
		return Tournament{}, err
	}
	tournament := Tournament{
		ID:        service.newID(),
		Name:      input.Name,
		Structure: input.Structure,
		TeamIDs:   input.TeamIDs,
		Sport:     input.Sport,
	}
	if err := service.store.PutTournament(ctx, tournament); err != nil {
		return Tournament{}, err
	}
	return tournament, nil
}

// GetTournaments lists every tournament.
func (service *Service) GetTournaments(ctx context.Context) ([]Tournament, error) {
	return service.store.ListTournaments(ctx)
}

// CreateTeam records a team coached by the caller.
func (service *Service) CreateTeam(ctx context.Context, caller market.Identity, input TeamInput) (Team, error) {
	if err := input.Validate(); err != nil {
		return Team{}, err
	}
	team := Team{
		ID:      service.newID(),
		Name:    input.Name,
		Coach:   caller,
		Players: input.Players,
		Sport:   input.Sport,
	}
	if err := service.store.PutTeam(ctx, team); err != nil {
		return Team{}, err
	}
	return team, nil
}

// GetTeams lists every team.
func (service *Service) GetTeams(ctx context.Context) ([]Team, error) {
	return service.store.ListTeams(ctx)
}

// ScheduleMatch pairs two teams on a date. Both team records are
// snapshotted into the match, and the match inherits the home team's
// sport.
func (service *Service) ScheduleMatch(ctx context.Context, homeTeamID string, awayTeamID string, scheduledDate string) (Match, error) {
	homeTeam, err := service.store.GetTeam(ctx, homeTeamID)
	if err != nil {
		return Match{}, fmt.Errorf("%w: %s", ErrTeamNotFound, homeTeamID)
	}
	awayTeam, err := service.store.GetTeam(ctx, awayTeamID)
	if err != nil {
		return Match{}, fmt.Errorf("%w: %s", ErrTeamNotFound, awayTeamID)
	}
	match := Match{
		ID:            service.newID(),
		HomeTeam:      homeTeam,
		AwayTeam:      awayTeam,
		Sport:         homeTeam.Sport,
		ScheduledDate: scheduledDate,
	}
	if err := service.store.PutMatch(ctx, match); err != nil {
		return Match{}, err
	}
	return match, nil
}

// GetMatches lists every match.
func (service *Service) GetMatches(ctx context.Context) ([]Match, error) {
	return service.store.ListMatches(ctx)
}

// SubmitMatchResult records the winning team of a match. The result
// value is the winning team identifier.
func (service *Service) SubmitMatchResult(ctx context.Context, matchID string, result string) (Match, error) {
	var updated Match
	err := service.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		match, err := tx.GetMatch(ctx, matchID)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}
		match.Result = &result
		if err := tx.PutMatch(ctx, match); err != nil {
			return err
		}
		updated = match
		return nil
	})
	if err != nil {
		return Match{}, err
	}
	return updated, nil
}

// Leaderboard ranks the teams of one sport by points earned from
// submitted results: three points per win, descending.
func (service *Service) Leaderboard(ctx context.Context, sport SportType) ([]Standing, error) {
	if _, err := ParseSportType(string(sport)); err != nil {
		return nil, err
	}
	teams, err := service.store.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := service.store.ListMatches(ctx)
	if err != nil {
		return nil, err
	}

	points := make(map[string]int)
	for _, match := range matches {
		if match.Result == nil {
			continue
		}
		switch *match.Result {
		case match.HomeTeam.ID:
			points[match.HomeTeam.ID] += 3
		case match.AwayTeam.ID:
			points[match.AwayTeam.ID] += 3
		}
	}

	standings := make([]Standing, 0, len(teams))
	for _, team := range teams {
		if team.Sport != sport {
			continue
		}
		standings = append(standings, Standing{Team: team, Points: points[team.ID]})
	}
	sort.SliceStable(standings, func(left, right int) bool {
		return standings[left].Points > standings[right].Points
	})
	return standings, nil
}
