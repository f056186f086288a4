package profile

import (
	"net/http"

	"github.com/neboloop/outfitswitch/internal/httputil"
	"github.com/neboloop/outfitswitch/internal/svc"
	"github.com/neboloop/outfitswitch/internal/types"
)

// Create an empty profile and switch to it
func CreateProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ProfileNameRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if _, err := svcCtx.Store.Create(r.Context(), req.Name, nil); err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, activeResponse(svcCtx))
	}
}

// Switch the active profile
func ActivateProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ActivateProfileRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if _, err := svcCtx.Store.SetActive(r.Context(), req.Name); err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, activeResponse(svcCtx))
	}
}

// Copy the active profile and switch to the copy
func DuplicateProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ProfileNameRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if _, err := svcCtx.Store.Duplicate(r.Context(), req.Name); err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, activeResponse(svcCtx))
	}
}

// Rename the active profile
func RenameProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ProfileNameRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if _, err := svcCtx.Store.Rename(r.Context(), req.Name); err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, activeResponse(svcCtx))
	}
}

// Delete the active profile
func DeleteProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, active, err := svcCtx.Store.Delete(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, &types.DeleteProfileResponse{Deleted: deleted, ActiveProfile: active})
	}
}
