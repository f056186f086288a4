package profile

import (
	"net/http"

	"github.com/neboloop/outfitswitch/internal/costume"
	"github.com/neboloop/outfitswitch/internal/httputil"
	"github.com/neboloop/outfitswitch/internal/svc"
	"github.com/neboloop/outfitswitch/internal/types"
)

// Edits below are saved by the auto-save scheduler, not immediately.

func SetBaseFolderHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SetBaseFolderRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		svcCtx.Store.SetBaseFolder(req.BaseFolder)
		httputil.OkJSON(w, activeResponse(svcCtx))
	}
}

func SetTriggersHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SetTriggersRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		svcCtx.Store.SetTriggers(req.Triggers)
		httputil.OkJSON(w, activeResponse(svcCtx))
	}
}

func SetVariantsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SetVariantsRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		svcCtx.Store.SetVariants(req.Variants)
		httputil.OkJSON(w, activeResponse(svcCtx))
	}
}

// PickedFolderHandler resolves a picked directory or file to a folder
// relative to the active profile's base folder. Nothing is saved.
func PickedFolderHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.PickedFolderRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		base := costume.NormalizeFolder(svcCtx.Store.ActiveProfile().BaseFolder)
		picked := req.Path
		if req.File {
			picked = costume.DirectoryOf(costume.NormalizeFolder(picked))
		}
		httputil.OkJSON(w, types.PickedFolderResponse{
			BaseFolder: base,
			Folder:     costume.RelativeFolder(base, picked),
		})
	}
}
