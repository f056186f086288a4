package profile

import (
	"fmt"
	"io"
	"net/http"

	"github.com/neboloop/outfitswitch/internal/httputil"
	"github.com/neboloop/outfitswitch/internal/profile"
	"github.com/neboloop/outfitswitch/internal/svc"
)

const maxImportSize = 1 << 20

// Download the active profile
func ExportProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exp, data, err := svcCtx.Store.Export()
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", profile.ExportFileName(exp.Name)))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

// Import an exported profile; the body is the file content.
func ImportProfileHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
		if err != nil {
			httputil.Error(w, err)
			return
		}
		fileName := httputil.QueryString(r, "fileName", "")
		if _, err := svcCtx.Store.Import(r.Context(), data, fileName); err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, activeResponse(svcCtx))
	}
}
