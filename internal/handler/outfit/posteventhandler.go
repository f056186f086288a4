package outfit

import (
	"io"
	"net/http"

	"github.com/neboloop/outfitswitch/internal/events"
	"github.com/neboloop/outfitswitch/internal/httputil"
	"github.com/neboloop/outfitswitch/internal/payload"
	"github.com/neboloop/outfitswitch/internal/svc"
	"github.com/neboloop/outfitswitch/internal/types"
)

const maxEventBody = 1 << 20

// Post a host lifecycle event. The body is the listener argument list.
func PostEventHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := httputil.PathVar(r, "topic")
		if !events.IsHostTopic(topic) {
			httputil.NotFound(w, "unknown topic "+topic)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
		if err != nil {
			httputil.Error(w, err)
			return
		}
		args, err := payload.ParseArgs(body)
		if err != nil {
			httputil.Error(w, err)
			return
		}

		if err := events.EmitHost(svcCtx.Events, topic, args); err != nil {
			httputil.ErrorWithCode(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if r.URL.Query().Get("wait") == "1" {
			if err := svcCtx.Events.Sync(r.Context()); err != nil {
				httputil.InternalError(w, err.Error())
				return
			}
		}

		httputil.WriteJSON(w, http.StatusAccepted, &types.PostEventResponse{Topic: topic, Args: len(args)})
	}
}
