package settings

import (
	"net/http"

	"github.com/neboloop/outfitswitch/internal/httputil"
	"github.com/neboloop/outfitswitch/internal/svc"
	"github.com/neboloop/outfitswitch/internal/types"
)

// Current settings and the edits waiting to be saved
func GetSettingsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.OkJSON(w, &types.SettingsResponse{
			Settings: svcCtx.Store.Snapshot(),
			Pending:  svcCtx.Autosave.Pending(),
		})
	}
}

// Toggle automatic switching
func SetEnabledHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SetEnabledRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		svcCtx.Store.SetEnabled(req.Enabled)
		httputil.OkJSON(w, &types.SettingsResponse{
			Settings: svcCtx.Store.Snapshot(),
			Pending:  svcCtx.Autosave.Pending(),
		})
	}
}

// Save pending edits now
func FlushHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svcCtx.FlushQuiet()
		httputil.OkJSON(w, &types.MessageResponse{Message: "Settings saved"})
	}
}
