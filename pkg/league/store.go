package league

import "context"

// Store persists league records. Implementations return ErrNotFound
// (or an error wrapping it) when a requested record does not exist.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	PutUser(ctx context.Context, user User) error
	ListUsers(ctx context.Context) ([]User, error)

	PutLeague(ctx context.Context, record League) error
	ListLeagues(ctx context.Context) ([]League, error)

	PutTournament(ctx context.Context, tournament Tournament) error
	ListTournaments(ctx context.Context) ([]Tournament, error)

	GetTeam(ctx context.Context, teamID string) (Team, error)
	PutTeam(ctx context.Context, team Team) error
	ListTeams(ctx context.Context) ([]Team, error)

	GetMatch(ctx context.Context, matchID string) (Match, error)
	PutMatch(ctx context.Context, match Match) error
	ListMatches(ctx context.Context) ([]Match, error)
}
