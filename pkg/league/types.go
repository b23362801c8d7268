// Package league tracks school sports leagues alongside the loan
// marketplace: registered users, leagues, tournaments, teams, and the
// matches played between them.
package league

import (
	"fmt"
	"strings"

	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

// Role classifies a registered user.
type Role string

const (
	RoleStudentAthlete Role = "student_athlete"
	RoleCoach          Role = "coach"
	RoleAdministrator  Role = "administrator"
	RoleLeagueOfficial Role = "league_official"
)

// ParseRole validates a textual role.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleStudentAthlete:
		return RoleStudentAthlete, nil
	case RoleCoach:
		return RoleCoach, nil
	case RoleAdministrator:
		return RoleAdministrator, nil
	case RoleLeagueOfficial:
		return RoleLeagueOfficial, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidRole, value)
	}
}

// SportType names the sport a team or competition belongs to.
type SportType string

const (
	SportFootball   SportType = "football"
	SportBasketball SportType = "basketball"
	SportVolleyball SportType = "volleyball"
)

// ParseSportType validates a textual sport type.
func ParseSportType(value string) (SportType, error) {
	switch SportType(strings.ToLower(strings.TrimSpace(value))) {
	case SportFootball:
		return SportFootball, nil
	case SportBasketball:
		return SportBasketball, nil
	case SportVolleyball:
		return SportVolleyball, nil
	default:
		return "", fmt.Errorf("%w: unknown sport %q", ErrInvalidSport, value)
	}
}

// TournamentStructure names the bracket shape of a tournament.
type TournamentStructure string

const (
	StructureRoundRobin TournamentStructure = "round_robin"
	StructureKnockout   TournamentStructure = "knockout"
)

// ParseTournamentStructure validates a textual tournament structure.
func ParseTournamentStructure(value string) (TournamentStructure, error) {
	switch TournamentStructure(strings.ToLower(strings.TrimSpace(value))) {
	case StructureRoundRobin:
		return StructureRoundRobin, nil
	case StructureKnockout:
		return StructureKnockout, nil
	default:
		return "", fmt.Errorf("%w: unknown tournament structure %q", ErrInvalidStructure, value)
	}
}

// User is a registered league participant.
type User struct {
	ID    string
	Owner market.Identity
	Name  string
	Email string
	Role  Role
}

// Team groups a coach and players under one sport.
type Team struct {
	ID      string
	Name    string
	Coach   market.Identity
	Players []market.Identity
	Sport   SportType
}

// Match pairs two team snapshots on a scheduled date. Result holds the
// winning team identifier once submitted and stays nil until then.
type Match struct {
	ID            string
	HomeTeam      Team
	AwayTeam      Team
	Sport         SportType
	ScheduledDate string
	Result        *string
}

// Tournament references participating teams by identifier.
type Tournament struct {
	ID        string
	Name      string
	Structure TournamentStructure
	TeamIDs   []string
	Sport     SportType
}

// League is the top-level competition container.
type League struct {
	ID          string
	Name        string
	Tournaments []Tournament
	Sport       SportType
	CreatedBy   market.Identity
}

// Standing is one leaderboard row: a team and the points it earned
// from submitted match results.
type Standing struct {
	Team   Team
	Points int
}

// UserInput carries the caller-supplied fields of RegisterUser.
type UserInput struct {
	Name  string
	Email string
	Role  Role
}

// Validate reports whether the input can become a user record.
func (input UserInput) Validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: user name is required", ErrInvalidPayload)
	}
	if _, err := ParseRole(string(input.Role)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// LeagueInput carries the caller-supplied fields of CreateLeague.
type LeagueInput struct {
	Name  string
	Sport SportType
}

// Validate reports whether the input can become a league record.
func (input LeagueInput) Validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: league name is required", ErrInvalidPayload)
	}
	if _, err := ParseSportType(string(input.Sport)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// TournamentInput carries the caller-supplied fields of CreateTournament.
type TournamentInput struct {
	Name      string
	Structure TournamentStructure
	TeamIDs   []string
	Sport     SportType
}

// Validate reports whether the input can become a tournament record.
func (input TournamentInput) Validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: tournament name is required", ErrInvalidPayload)
	}
	if _, err := ParseTournamentStructure(string(input.Structure)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if _, err := ParseSportType(string(input.Sport)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// TeamInput carries the caller-supplied fields of CreateTeam.
type TeamInput struct {
	Name    string
	Sport   SportType
	Players []market.Identity
}

// Validate reports whether the input can become a team record.
func (input TeamInput) Validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: team name is required", ErrInvalidPayload)
	}
	if _, err := ParseSportType(string(input.Sport)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
