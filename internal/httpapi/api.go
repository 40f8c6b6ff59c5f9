package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuqie6/SkillBridge/internal/dto"
	"github.com/yuqie6/SkillBridge/internal/repository"
	"github.com/yuqie6/SkillBridge/internal/schema"
	"github.com/yuqie6/SkillBridge/internal/service"
)

const defaultNotificationLimit = 50

func (a *apiServer) registerRoutes(g *gin.RouterGroup) {
	g.POST("/profile", a.createProfile)
	g.PUT("/profile", a.updateProfile)
	g.GET("/profile", a.getOwnProfile)
	g.GET("/profiles", a.discoverProfiles)
	g.GET("/profiles/:userId", a.getProfile)

	g.POST("/matches/generate", a.generateMatches)
	g.GET("/matches", a.listMatches)
	g.POST("/matches/:id/connect", a.connectMatch)
	g.POST("/matches/:id/dismiss", a.dismissMatch)

	g.POST("/connections", a.requestConnection)
	g.GET("/connections", a.listConnectionRequests)
	g.GET("/connections/accepted", a.listConnections)
	g.POST("/connections/:id/accept", a.acceptConnection)
	g.POST("/connections/:id/decline", a.declineConnection)

	g.GET("/streak", a.getStreak)

	g.GET("/badges", a.listBadges)
	g.GET("/badges/catalog", a.badgeCatalog)
	g.POST("/badges/evaluate", a.evaluateBadges)

	g.GET("/leaderboard/teams", a.teamLeaderboard)
	g.GET("/leaderboard/me", a.ownStanding)

	g.GET("/points", a.pointsSummary)
	g.GET("/points/events", a.pointEvents)
	g.POST("/points/reconcile", a.reconcilePoints)

	g.POST("/swaps", a.logSwap)
	g.GET("/swaps", a.listSwaps)
	g.GET("/meetups/code", a.meetupCode)
	g.POST("/meetups", a.recordMeetup)
	g.POST("/icebreakers", a.completeIcebreaker)
	g.POST("/endorsements", a.endorse)
	g.GET("/endorsements", a.listEndorsements)

	g.POST("/learning-sessions", a.requestSession)
	g.GET("/learning-sessions", a.listSessions)
	g.POST("/learning-sessions/:id/accept", a.respondSession(true))
	g.POST("/learning-sessions/:id/decline", a.respondSession(false))
	g.POST("/learning-sessions/:id/complete", a.completeSession)

	g.GET("/notifications", a.listNotifications)
	g.POST("/notifications/:id/read", a.markNotificationRead)
}

// ========== profiles ==========

func (a *apiServer) createProfile(c *gin.Context) {
	var in service.ProfileInput
	if !bindJSON(c, &in) {
		return
	}
	in.UserID = actorID(c)
	p, err := a.core.Services.Profiles.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (a *apiServer) updateProfile(c *gin.Context) {
	var in service.ProfileInput
	if !bindJSON(c, &in) {
		return
	}
	in.UserID = actorID(c)
	p, err := a.core.Services.Profiles.Update(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *apiServer) getOwnProfile(c *gin.Context) {
	a.writeProfile(c, actorID(c))
}

func (a *apiServer) getProfile(c *gin.Context) {
	p, err := a.core.Services.Profiles.View(c.Request.Context(), actorID(c), c.Param("userId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *apiServer) writeProfile(c *gin.Context, userID string) {
	p, err := a.core.Services.Profiles.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *apiServer) discoverProfiles(c *gin.Context) {
	list, err := a.core.Services.Profiles.Discover(c.Request.Context(), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ========== matches ==========

func (a *apiServer) generateMatches(c *gin.Context) {
	rows, err := a.core.Services.Suggestions.Generate(c.Request.Context(), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (a *apiServer) listMatches(c *gin.Context) {
	status := schema.SuggestionStatus(strings.TrimSpace(c.Query("status")))
	views, err := a.core.Services.Suggestions.List(c.Request.Context(), actorID(c), status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (a *apiServer) connectMatch(c *gin.Context) {
	req, err := a.core.Services.Suggestions.Connect(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (a *apiServer) dismissMatch(c *gin.Context) {
	if err := a.core.Services.Suggestions.Dismiss(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OKDTO{OK: true})
}

// ========== connections ==========

func (a *apiServer) requestConnection(c *gin.Context) {
	var body dto.ConnectionRequestDTO
	if !bindJSON(c, &body) {
		return
	}
	req, err := a.core.Services.Connections.Request(c.Request.Context(), service.ConnectionInput{
		RequesterID: actorID(c),
		TargetID:    strings.TrimSpace(body.TargetID),
		Message:     body.Message,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// listConnectionRequests lists incoming requests by default; direction=outgoing
// lists the caller's own.
func (a *apiServer) listConnectionRequests(c *gin.Context) {
	filter := repository.ConnectionFilter{Status: schema.ConnectionStatus(strings.TrimSpace(c.Query("status")))}
	if c.Query("direction") == "outgoing" {
		filter.RequesterID = actorID(c)
	} else {
		filter.TargetID = actorID(c)
	}
	list, err := a.core.Services.Connections.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *apiServer) listConnections(c *gin.Context) {
	views, err := a.core.Services.Connections.Connections(c.Request.Context(), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (a *apiServer) acceptConnection(c *gin.Context) {
	req, err := a.core.Services.Connections.Accept(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (a *apiServer) declineConnection(c *gin.Context) {
	req, err := a.core.Services.Connections.Decline(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ========== streaks, badges, leaderboard ==========

func (a *apiServer) getStreak(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := a.core.Services.Profiles.Get(ctx, actorID(c)); err != nil {
		writeError(c, err)
		return
	}
	st, err := a.core.Services.Streaks.Recompute(ctx, actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (a *apiServer) listBadges(c *gin.Context) {
	grants, err := a.core.Services.Badges.List(c.Request.Context(), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, grants)
}

func (a *apiServer) badgeCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, a.core.Services.Badges.Catalog())
}

func (a *apiServer) evaluateBadges(c *gin.Context) {
	granted, err := a.core.Services.Badges.Evaluate(c.Request.Context(), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"granted": granted})
}

func (a *apiServer) teamLeaderboard(c *gin.Context) {
	teams, err := a.core.Services.Leaderboard.Teams(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

func (a *apiServer) ownStanding(c *gin.Context) {
	st, err := a.core.Services.Leaderboard.Standing(c.Request.Context(), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// ========== points ==========

func (a *apiServer) pointsSummary(c *gin.Context) {
	sum, err := a.core.Services.Ledger.Summary(c.Request.Context(), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (a *apiServer) pointEvents(c *gin.Context) {
	var kinds []schema.ActionKind
	if k := strings.TrimSpace(c.Query("kind")); k != "" {
		kind := schema.ActionKind(k)
		if !kind.Valid() {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorDTO{Error: "unknown kind " + k})
			return
		}
		kinds = append(kinds, kind)
	}
	events, err := a.core.Services.Ledger.Events(c.Request.Context(), actorID(c), kinds...)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (a *apiServer) reconcilePoints(c *gin.Context) {
	res, err := a.core.Services.Ledger.Reconcile(c.Request.Context(), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ========== activities ==========

func (a *apiServer) logSwap(c *gin.Context) {
	var in service.SwapInput
	if !bindJSON(c, &in) {
		return
	}
	in.TeacherID = actorID(c)
	swap, err := a.core.Services.Activities.LogSwap(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, swap)
}

func (a *apiServer) listSwaps(c *gin.Context) {
	swaps, err := a.core.Services.Activities.Swaps(c.Request.Context(), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, swaps)
}

func (a *apiServer) meetupCode(c *gin.Context) {
	now := time.Now()
	c.JSON(http.StatusOK, dto.MeetupCodeDTO{
		Code:     service.MeetupCode(actorID(c), now),
		IssuedAt: now.UnixMilli(),
	})
}

func (a *apiServer) recordMeetup(c *gin.Context) {
	var in service.MeetupInput
	if !bindJSON(c, &in) {
		return
	}
	in.ScannerID = actorID(c)
	events, err := a.core.Services.Activities.RecordMeetup(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, events)
}

func (a *apiServer) completeIcebreaker(c *gin.Context) {
	var in service.IcebreakerInput
	if !bindJSON(c, &in) {
		return
	}
	in.UserID = actorID(c)
	e, err := a.core.Services.Activities.CompleteIcebreaker(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (a *apiServer) endorse(c *gin.Context) {
	var in service.EndorsementInput
	if !bindJSON(c, &in) {
		return
	}
	in.EndorserID = actorID(c)
	e, err := a.core.Services.Activities.Endorse(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (a *apiServer) listEndorsements(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		userID = actorID(c)
	}
	list, err := a.core.Services.Activities.Endorsements(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *apiServer) requestSession(c *gin.Context) {
	var in service.SessionRequestInput
	if !bindJSON(c, &in) {
		return
	}
	in.LearnerID = actorID(c)
	sess, err := a.core.Services.Activities.RequestSession(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (a *apiServer) listSessions(c *gin.Context) {
	list, err := a.core.Services.Activities.Sessions(c.Request.Context(), actorID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *apiServer) respondSession(accept bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := a.core.Services.Activities.RespondSession(c.Request.Context(), actorID(c), c.Param("id"), accept)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

func (a *apiServer) completeSession(c *gin.Context) {
	sess, err := a.core.Services.Activities.CompleteSession(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// ========== notifications ==========

func (a *apiServer) listNotifications(c *gin.Context) {
	list, err := a.core.Services.Notifications.List(c.Request.Context(), actorID(c),
		queryBool(c, "unread"), queryLimit(c, defaultNotificationLimit))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *apiServer) markNotificationRead(c *gin.Context) {
	if err := a.core.Services.Notifications.MarkRead(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OKDTO{OK: true})
}
