package outfit

import (
	"net/http"
	"strings"

	"github.com/neboloop/outfitswitch/internal/httputil"
	"github.com/neboloop/outfitswitch/internal/issuer"
	"github.com/neboloop/outfitswitch/internal/svc"
	"github.com/neboloop/outfitswitch/internal/types"
)

// Run a trigger by name
func RunTriggerHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RunTriggerRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if strings.TrimSpace(req.Trigger) == "" {
			httputil.ErrorWithCode(w, http.StatusBadRequest, "trigger is required")
			return
		}

		msg := svcCtx.Runner.RunTriggerByName(r.Context(), req.Trigger, issuer.SourceUI)
		httputil.OkJSON(w, statusResponse(msg))
	}
}

// Run a variant of the active profile
func RunVariantHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RunVariantRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.OkJSON(w, statusResponse(svcCtx.Runner.RunVariant(r.Context(), req.Index)))
	}
}

// Switch to the active profile's base folder
func RunBaseHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.OkJSON(w, statusResponse(svcCtx.Runner.RunBase(r.Context())))
	}
}
