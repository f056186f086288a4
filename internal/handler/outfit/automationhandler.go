package outfit

import (
	"net/http"

	"github.com/neboloop/outfitswitch/internal/command"
	"github.com/neboloop/outfitswitch/internal/httputil"
	"github.com/neboloop/outfitswitch/internal/svc"
	"github.com/neboloop/outfitswitch/internal/types"
)

// Automation tracking state
func AutomationHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.OkJSON(w, map[string]any{
			"state":      svcCtx.Controller.Snapshot(),
			"registered": svcCtx.Controller.Registered(),
		})
	}
}

// Clear automation tracking
func ResetAutomationHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svcCtx.Controller.Reset()
		httputil.OkJSON(w, &types.MessageResponse{Message: "Automation state cleared"})
	}
}

// Slash command registration metadata
func SlashHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.OkJSON(w, command.SlashConfig())
	}
}

// Recent status messages
func NoticesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recent := svcCtx.Notices.Recent()
		out := make([]*types.StatusResponse, len(recent))
		for i, m := range recent {
			out[i] = statusResponse(m)
		}
		httputil.OkJSON(w, out)
	}
}

// Costume history (sqlite store only)
func HistoryHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svcCtx.DB == nil {
			httputil.NotFound(w, "history requires the sqlite store")
			return
		}
		var req types.HistoryRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		entries, err := svcCtx.DB.ListHistory(r.Context(), req.Limit)
		if err != nil {
			httputil.InternalError(w, err.Error())
			return
		}
		httputil.OkJSON(w, entries)
	}
}
