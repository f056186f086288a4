package types

import "github.com/neboloop/outfitswitch/internal/profile"

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Hosts     int    `json:"hosts"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// StatusResponse is a status message in plain and rendered form.
type StatusResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	HTML    string `json:"html"`
	OK      bool   `json:"ok"`
}

type PostEventRequest struct {
	Topic string `path:"topic"`
}

type PostEventResponse struct {
	Topic string `json:"topic"`
	Args  int    `json:"args"`
}

type RunTriggerRequest struct {
	Trigger string `json:"trigger"`
}

type RunVariantRequest struct {
	Index int `path:"index"`
}

type MatchRequest struct {
	Text string `json:"text"`
}

type MatchResponse struct {
	Matched bool   `json:"matched"`
	Costume string `json:"costume,omitempty"`
	Trigger string `json:"trigger,omitempty"`
	Profile string `json:"profile"`
}

type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

type SettingsResponse struct {
	Settings *profile.Settings `json:"settings"`
	Pending  []string          `json:"pending"`
}

type ProfileSummary struct {
	Name     string `json:"name"`
	Active   bool   `json:"active"`
	Triggers int    `json:"triggers"`
	Variants int    `json:"variants"`
}

type ListProfilesResponse struct {
	Profiles      []ProfileSummary `json:"profiles"`
	ActiveProfile string           `json:"activeProfile"`
}

type ProfileNameRequest struct {
	Name string `json:"name"`
}

type ActivateProfileRequest struct {
	Name string `path:"name"`
}

type ProfileResponse struct {
	Name    string           `json:"name"`
	Profile *profile.Profile `json:"profile"`
}

type DeleteProfileResponse struct {
	Deleted       string `json:"deleted"`
	ActiveProfile string `json:"activeProfile"`
}

type SetBaseFolderRequest struct {
	BaseFolder string `json:"baseFolder"`
}

// PickedFolderRequest carries a path the host's picker returned. When
// File is set, Path names a file and its directory is used.
type PickedFolderRequest struct {
	Path string `json:"path"`
	File bool   `json:"file,omitempty"`
}

type PickedFolderResponse struct {
	BaseFolder string `json:"baseFolder"`
	Folder     string `json:"folder"`
}

type SetTriggersRequest struct {
	Triggers []profile.TriggerEntry `json:"triggers"`
}

type SetVariantsRequest struct {
	Variants []profile.Variant `json:"variants"`
}

type HistoryRequest struct {
	Limit int `form:"limit"`
}
