package profile

import (
	"net/http"

	"github.com/neboloop/outfitswitch/internal/httputil"
	"github.com/neboloop/outfitswitch/internal/profile"
	"github.com/neboloop/outfitswitch/internal/svc"
	"github.com/neboloop/outfitswitch/internal/types"
)

// List profiles in stored order
func ListProfilesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := types.ListProfilesResponse{Profiles: []types.ProfileSummary{}}
		svcCtx.Store.View(func(s *profile.Settings) {
			resp.ActiveProfile = s.ActiveProfile
			for _, name := range s.Profiles.Names() {
				p := s.Profiles.Get(name)
				resp.Profiles = append(resp.Profiles, types.ProfileSummary{
					Name:     name,
					Active:   name == s.ActiveProfile,
					Triggers: len(p.Triggers),
					Variants: len(p.Variants),
				})
			}
		})
		httputil.OkJSON(w, &resp)
	}
}

// The active profile
func GetActiveProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.OkJSON(w, activeResponse(svcCtx))
	}
}

func activeResponse(svcCtx *svc.ServiceContext) *types.ProfileResponse {
	return &types.ProfileResponse{
		Name:    svcCtx.Store.ActiveName(),
		Profile: svcCtx.Store.ActiveProfile(),
	}
}
