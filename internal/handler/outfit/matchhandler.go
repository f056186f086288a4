package outfit

import (
	"net/http"

	"github.com/neboloop/outfitswitch/internal/httputil"
	"github.com/neboloop/outfitswitch/internal/profile"
	"github.com/neboloop/outfitswitch/internal/svc"
	"github.com/neboloop/outfitswitch/internal/trigger"
	"github.com/neboloop/outfitswitch/internal/types"
)

// Dry-run trigger matching against the active profile
func MatchHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.MatchRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		var resp types.MatchResponse
		svcCtx.Store.View(func(s *profile.Settings) {
			resp.Profile = s.ActiveProfile
			if m, ok := trigger.FindCostumeForText(s.Active(), req.Text); ok {
				resp.Matched = true
				resp.Costume = m.Costume
				resp.Trigger = m.Trigger
			}
		})
		httputil.OkJSON(w, &resp)
	}
}
