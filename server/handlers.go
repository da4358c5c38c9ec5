package server

import (
	"net/http"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sparksblog/sparks/auth"
	"github.com/sparksblog/sparks/feed"
	"github.com/sparksblog/sparks/model"
	"github.com/sparksblog/sparks/server/middlewares"
	"github.com/sparksblog/sparks/utils"
	Logger "github.com/sparksblog/sparks/utils/log"
)

// Deps carries everything the handlers need. It serves as dependency
// injection for the http surface.
type Deps struct {
	Storage    feed.Storage
	Auth       *auth.Service
	Bus        *Bus
	FeedConfig feed.Config

	// Statsd is optional, counters are skipped when nil.
	Statsd *statsd.Client
}

func (d Deps) count(metric string) {
	if d.Statsd == nil {
		return
	}
	if err := d.Statsd.Incr(metric, nil, 1); err != nil {
		Logger.Log.Info("cannot report metric ", metric)
	}
}

// RegisterRoutes wires all API routes onto the router. The session
// middleware runs on every route; write routes additionally require a user.
func RegisterRoutes(router *gin.Engine, deps Deps) {
	router.Use(middlewares.Session(deps.Auth))

	router.POST("/auth/link", RequestLinkHandler(deps))
	router.GET("/auth/verify", VerifyLinkHandler(deps))
	router.GET("/auth/oauth/callback", OAuthCallbackHandler(deps))
	router.POST("/auth/signout", middlewares.RequireUser(), SignOutHandler(deps))

	router.GET("/feed", FeedHandler(deps))
	router.GET("/live", LiveHandler(deps))

	ideas := router.Group("/ideas", middlewares.RequireUser())
	ideas.POST("", CreateIdeaHandler(deps))
	ideas.POST("/:id/like", ToggleLikeHandler(deps))
	ideas.POST("/:id/status", ToggleStatusHandler(deps))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}

// RequestLinkHandler kicks off the passwordless flow: issue a one-time token
// for the address and mail the sign-in link.
func RequestLinkHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input model.SignInInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidInput, "msg": err.Error()})
			return
		}

		if err := deps.Auth.RequestLink(c.Request.Context(), input.Email); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidInput, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"msg": "check your email for a sign-in link"})
	}
}

// VerifyLinkHandler exchanges a mailed one-time token for a session.
func VerifyLinkHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidInput, "msg": "token is required"})
			return
		}

		sessionToken, session, err := deps.Auth.VerifyLink(c.Request.Context(), token)
		if errors.Is(err, auth.ErrTokenNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"code": utils.ErrorTokenAuthFail, "msg": "link is invalid or was already used"})
			return
		}
		if err != nil {
			Logger.Log.Error("fail to verify sign-in link: ", err)
			c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorBackendWrite, "msg": "sign-in failed, please retry"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": sessionToken, "session": session})
	}
}

// OAuthCallbackHandler finishes provider sign-in with the authorization code.
func OAuthCallbackHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidInput, "msg": "code is required"})
			return
		}

		sessionToken, session, err := deps.Auth.OAuth(c.Request.Context(), code)
		if err != nil {
			Logger.Log.Error("fail to finish oauth sign-in: ", err)
			c.JSON(http.StatusUnauthorized, gin.H{"code": utils.ErrorTokenAuthFail, "msg": "provider sign-in failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": sessionToken, "session": session})
	}
}

func SignOutHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := deps.Auth.SignOut(c.Request.Context(), middlewares.TokenFrom(c)); err != nil {
			Logger.Log.Error("fail to sign out: ", err)
			c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorBackendWrite, "msg": "sign-out failed, please retry"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// FeedHandler serves the assembled feed window for the requesting viewer.
func FeedHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := feed.NewStore(deps.Storage, deps.FeedConfig)
		if err := store.Reload(c.Request.Context(), middlewares.SessionFrom(c)); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorBackendRead, "msg": "feed is unavailable, please retry"})
			return
		}
		c.JSON(http.StatusOK, store.Snapshot())
	}
}

// CreateIdeaHandler posts a new idea and responds with the refreshed feed.
// Input that fails validation (empty after trimming, over the length cap) is
// a silent no-op answered with 204.
func CreateIdeaHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input model.NewIdeaInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidInput, "msg": err.Error()})
			return
		}
		if input.Status != model.StatusDone && input.Status != model.StatusInProgress {
			c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidInput, "msg": "status must be 0 or 1"})
			return
		}

		session := middlewares.SessionFrom(c)
		store := feed.NewStore(deps.Storage, deps.FeedConfig)
		composer := feed.NewComposer(deps.Storage, store, deps.FeedConfig)

		idea, err := composer.Submit(c.Request.Context(), session, input.Content, input.Status)
		if err != nil && idea == nil {
			Logger.Log.Error("fail to post idea: ", err)
			c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorBackendWrite, "msg": "posting failed, your draft was kept"})
			return
		}
		if idea == nil {
			c.Status(http.StatusNoContent)
			return
		}
		if err != nil {
			// the idea is in, only the refresh read failed; answer 201 with
			// the last-known snapshot so the client does not resubmit and
			// duplicate the post
			Logger.Log.Error("feed refresh after posting failed: ", err)
		}

		deps.count("sparks.ideas.posted")
		deps.Bus.PublishIdeaMutated(idea.Id)
		c.JSON(http.StatusCreated, store.Snapshot())
	}
}

// ToggleLikeHandler flips the caller's like on an idea, trusting the
// caller's last-known liked state from its own snapshot. A stale duplicate
// insert dies quietly against the storage uniqueness constraint.
func ToggleLikeHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input model.ToggleLikeInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidInput, "msg": err.Error()})
			return
		}

		session := middlewares.SessionFrom(c)
		ideaID := c.Param("id")
		store := feed.NewStore(deps.Storage, deps.FeedConfig)
		toggles := feed.NewToggles(deps.Storage, store)

		if err := toggles.ToggleLikeAs(c.Request.Context(), session, ideaID, input.Liked); err != nil {
			Logger.Log.Error("fail to toggle like: ", err)
			c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorBackendWrite, "msg": "like failed, please retry"})
			return
		}

		deps.count("sparks.likes.toggled")
		deps.Bus.PublishIdeaMutated(ideaID)
		c.JSON(http.StatusOK, store.Snapshot())
	}
}

// ToggleStatusHandler flips an idea's binary status. Any signed-in viewer
// may flip any idea.
func ToggleStatusHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input model.SetStatusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidInput, "msg": err.Error()})
			return
		}
		if input.Status != model.StatusDone && input.Status != model.StatusInProgress {
			c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidInput, "msg": "status must be 0 or 1"})
			return
		}

		session := middlewares.SessionFrom(c)
		ideaID := c.Param("id")
		store := feed.NewStore(deps.Storage, deps.FeedConfig)
		toggles := feed.NewToggles(deps.Storage, store)

		if err := toggles.ToggleStatus(c.Request.Context(), session, ideaID, input.Status); err != nil {
			Logger.Log.Error("fail to toggle status: ", err)
			c.JSON(http.StatusBadGateway, gin.H{"code": utils.ErrorBackendWrite, "msg": "status change failed, please retry"})
			return
		}

		deps.count("sparks.status.toggled")
		deps.Bus.PublishIdeaMutated(ideaID)
		c.JSON(http.StatusOK, store.Snapshot())
	}
}
