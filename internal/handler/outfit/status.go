package outfit

import (
	"github.com/neboloop/outfitswitch/internal/status"
	"github.com/neboloop/outfitswitch/internal/types"
)

func statusResponse(m status.Message) *types.StatusResponse {
	return &types.StatusResponse{
		Kind:    string(m.Kind),
		Message: m.Text,
		HTML:    m.HTML(),
		OK:      m.OK(),
	}
}
