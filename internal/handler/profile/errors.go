package profile

import (
	"errors"
	"net/http"

	"github.com/neboloop/outfitswitch/internal/httputil"
	"github.com/neboloop/outfitswitch/internal/logging"
	"github.com/neboloop/outfitswitch/internal/profile"
)

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, profile.ErrNameTaken), errors.Is(err, profile.ErrLastProfile):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, profile.ErrEmptyName),
		errors.Is(err, profile.ErrNameUnchanged),
		errors.Is(err, profile.ErrInvalidImport),
		errors.Is(err, profile.ErrIndexOutOfRange):
		httputil.Error(w, err)
	default:
		logging.Errorf("profile operation failed: %v", err)
		httputil.InternalError(w, err.Error())
	}
}
