package handler

import (
	"net/http"
	"time"

	"github.com/neboloop/outfitswitch/internal/httputil"
	"github.com/neboloop/outfitswitch/internal/svc"
	"github.com/neboloop/outfitswitch/internal/types"
)

func HealthCheckHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.OkJSON(w, &types.HealthResponse{
			Status:    "healthy",
			Version:   svcCtx.Version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Hosts:     svcCtx.Hub.ClientCount(),
		})
	}
}
