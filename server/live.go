package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sparksblog/sparks/feed"
	"github.com/sparksblog/sparks/server/middlewares"
	Logger "github.com/sparksblog/sparks/utils/log"
)

var upgrader = websocket.Upgrader{
	// the browser app is served from a different origin than the api
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveHandler upgrades to a websocket and streams full feed snapshots: one
// on connect, one after every session transition and one after every idea
// mutation. Each connection owns its own feed store, so overlapping refresh
// triggers collapse through the store's reload serialization instead of
// racing each other.
func LiveHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := middlewares.SessionFrom(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			Logger.Log.Error("fail to upgrade live feed connection: ", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// the read loop only exists to notice the peer going away
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		store := feed.NewStore(deps.Storage, deps.FeedConfig)
		transitions := deps.Auth.Holder().Subscribe(ctx)
		events, err := deps.Bus.SubscribeIdeaMutated(ctx)
		if err != nil {
			Logger.Log.Error("fail to subscribe to idea mutations: ", err)
			return
		}

		push := func() {
			if err := store.Reload(ctx, session); err != nil {
				// previous snapshot stays valid, skip this push
				return
			}
			if err := conn.WriteJSON(store.Snapshot()); err != nil {
				cancel()
			}
		}

		push()
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-transitions:
				session = s
				push()
			case msg, ok := <-events:
				if !ok {
					return
				}
				msg.Ack()
				push()
			}
		}
	}
}
