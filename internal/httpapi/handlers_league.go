package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CedarStreetLab/loanmarket/pkg/league"
	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

type leagueHandler struct {
	service *league.Service
}

type registerUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (handler *leagueHandler) handleRegisterUser(ctx *gin.Context) {
	caller, ok := callerIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing identity"))
		return
	}
	var request registerUserRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	user, err := handler.service.RegisterUser(ctx.Request.Context(), caller, league.UserInput{
		Name:  request.Name,
		Email: request.Email,
		Role:  league.Role(request.Role),
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, userToPayload(user))
}

func (handler *leagueHandler) handleListUsers(ctx *gin.Context) {
	users, err := handler.service.GetUsers(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	payloads := make([]userPayload, 0, len(users))
	for _, user := range users {
		payloads = append(payloads, userToPayload(user))
	}
	ctx.JSON(http.StatusOK, gin.H{"users": payloads})
}

type createLeagueRequest struct {
	Name  string `json:"name"`
	Sport string `json:"sport"`
}

func (handler *leagueHandler) handleCreateLeague(ctx *gin.Context) {
	caller, ok := callerIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing identity"))
		return
	}
	var request createLeagueRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	record, err := handler.service.CreateLeague(ctx.Request.Context(), caller, league.LeagueInput{
		Name:  request.Name,
		Sport: league.SportType(request.Sport),
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, leagueToPayload(record))
}

func (handler *leagueHandler) handleListLeagues(ctx *gin.Context) {
	leagues, err := handler.service.GetLeagues(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	payloads := make([]leaguePayload, 0, len(leagues))
	for _, record := range leagues {
		payloads = append(payloads, leagueToPayload(record))
	}
	ctx.JSON(http.StatusOK, gin.H{"leagues": payloads})
}

type createTournamentRequest struct {
	Name      string   `json:"name"`
	Structure string   `json:"structure"`
	TeamIDs   []string `json:"team_ids"`
	Sport     string   `json:"sport"`
}

func (handler *leagueHandler) handleCreateTournament(ctx *gin.Context) {
	var request createTournamentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	tournament, err := handler.service.CreateTournament(ctx.Request.Context(), league.TournamentInput{
		Name:      request.Name,
		Structure: league.TournamentStructure(request.Structure),
		TeamIDs:   request.TeamIDs,
		Sport:     league.SportType(request.Sport),
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, tournamentToPayload(tournament))
}

func (handler *leagueHandler) handleListTournaments(ctx *gin.Context) {
	tournaments, err := handler.service.GetTournaments(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	payloads := make([]tournamentPayload, 0, len(tournaments))
	for _, tournament := range tournaments {
		payloads = append(payloads, tournamentToPayload(tournament))
	}
	ctx.JSON(http.StatusOK, gin.H{"tournaments": payloads})
}

type createTeamRequest struct {
	Name    string   `json:"name"`
	Sport   string   `json:"sport"`
	Players []string `json:"players"`
}

func (handler *leagueHandler) handleCreateTeam(ctx *gin.Context) {
	caller, ok := callerIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing identity"))
		return
	}
	var request createTeamRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	players := make([]market.Identity, 0, len(request.Players))
	for _, raw := range request.Players {
		player, err := market.NewIdentity(raw)
		if err != nil {
			respondError(ctx, err)
			return
		}
		players = append(players, player)
	}
	team, err := handler.service.CreateTeam(ctx.Request.Context(), caller, league.TeamInput{
		Name:    request.Name,
		Sport:   league.SportType(request.Sport),
		Players: players,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, teamToPayload(team))
}

func (handler *leagueHandler) handleListTeams(ctx *gin.Context) {
	teams, err := handler.service.GetTeams(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	payloads := make([]teamPayload, 0, len(teams))
	for _, team := range teams {
		payloads = append(payloads, teamToPayload(team))
	}
	ctx.JSON(http.StatusOK, gin.H{"teams": payloads})
}

type scheduleMatchRequest struct {
	HomeTeamID    string `json:"home_team_id"`
	AwayTeamID    string `json:"away_team_id"`
	ScheduledDate string `json:"scheduled_date"`
}

func (handler *leagueHandler) handleScheduleMatch(ctx *gin.Context) {
	var request scheduleMatchRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	match, err := handler.service.ScheduleMatch(ctx.Request.Context(), request.HomeTeamID, request.AwayTeamID, request.ScheduledDate)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, matchToPayload(match))
}

func (handler *leagueHandler) handleListMatches(ctx *gin.Context) {
	matches, err := handler.service.GetMatches(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	payloads := make([]matchPayload, 0, len(matches))
	for _, match := range matches {
		payloads = append(payloads, matchToPayload(match))
	}
	ctx.JSON(http.StatusOK, gin.H{"matches": payloads})
}

type matchResultRequest struct {
	WinnerTeamID string `json:"winner_team_id"`
}

func (handler *leagueHandler) handleSubmitMatchResult(ctx *gin.Context) {
	var request matchResultRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	match, err := handler.service.SubmitMatchResult(ctx.Request.Context(), ctx.Param("id"), request.WinnerTeamID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, matchToPayload(match))
}

func (handler *leagueHandler) handleLeaderboard(ctx *gin.Context) {
	standings, err := handler.service.Leaderboard(ctx.Request.Context(), league.SportType(ctx.Param("sport")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"standings": standingsToPayload(standings)})
}
