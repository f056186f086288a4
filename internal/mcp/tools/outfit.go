package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/neboloop/outfitswitch/internal/issuer"
	"github.com/neboloop/outfitswitch/internal/mcp/mcpctx"
	"github.com/neboloop/outfitswitch/internal/profile"
	"github.com/neboloop/outfitswitch/internal/trigger"
)

// SwitchInput defines input for the outfit_switch tool. Exactly one of
// Trigger, Variant or Base selects the costume.
type SwitchInput struct {
	Trigger string `json:"trigger,omitempty" jsonschema:"Trigger name from the active profile, matched case-insensitively."`
	Variant *int   `json:"variant,omitempty" jsonschema:"Zero-based index of a variant in the active profile."`
	Base    bool   `json:"base,omitempty" jsonschema:"Switch to the active profile's base folder."`
}

// SwitchOutput is the outcome of a switch.
type SwitchOutput struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// MatchInput defines input for the outfit_match tool.
type MatchInput struct {
	Text string `json:"text" jsonschema:"required,Message text to test against the active profile's triggers."`
}

// MatchOutput is the dry-run result.
type MatchOutput struct {
	Matched bool   `json:"matched"`
	Costume string `json:"costume,omitempty"`
	Trigger string `json:"trigger,omitempty"`
	Profile string `json:"profile"`
}

var profileActions = []string{"list", "activate"}

// ProfileInput defines input for the outfit_profile tool.
type ProfileInput struct {
	Action string `json:"action" jsonschema:"required,Action: list, activate"`
	Name   string `json:"name,omitempty" jsonschema:"Profile name. Required for activate."`
}

// ProfileOutput lists profiles after the action.
type ProfileOutput struct {
	Profiles      []string `json:"profiles"`
	ActiveProfile string   `json:"activeProfile"`
	Enabled       bool     `json:"enabled"`
}

// RegisterOutfitTools registers the outfit tools.
func RegisterOutfitTools(server *mcp.Server, toolCtx *mcpctx.ToolContext) {
	mcp.AddTool(server, &mcp.Tool{
		Name:  "outfit_switch",
		Title: "Switch Outfit",
		Description: `Switch the focus character's outfit.

Pass one of:
- trigger: run a trigger of the active profile by name
- variant: run a variant of the active profile by index
- base: switch to the active profile's base folder

Examples:
  outfit_switch(trigger: "cold")
  outfit_switch(variant: 0)
  outfit_switch(base: true)`,
	}, switchHandler(toolCtx))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "outfit_match",
		Title:       "Match Outfit Trigger",
		Description: "Report which costume a message would switch to, without switching.",
	}, matchHandler(toolCtx))

	mcp.AddTool(server, &mcp.Tool{
		Name:  "outfit_profile",
		Title: "Outfit Profiles",
		Description: `List outfit profiles or change the active one.

Actions:
- list: list profile names
- activate: make a profile active (requires: name)`,
	}, profileHandler(toolCtx))
}

func switchHandler(toolCtx *mcpctx.ToolContext) func(context.Context, *mcp.CallToolRequest, SwitchInput) (*mcp.CallToolResult, SwitchOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SwitchInput) (*mcp.CallToolResult, SwitchOutput, error) {
		runner := toolCtx.Svc().Runner

		chosen := 0
		if strings.TrimSpace(input.Trigger) != "" {
			chosen++
		}
		if input.Variant != nil {
			chosen++
		}
		if input.Base {
			chosen++
		}
		if chosen != 1 {
			return nil, SwitchOutput{}, mcpctx.NewValidationError("pass exactly one of trigger, variant or base", "trigger")
		}

		switch {
		case input.Variant != nil:
			msg := runner.RunVariant(ctx, *input.Variant)
			return nil, SwitchOutput{OK: msg.OK(), Message: msg.Text}, nil
		case input.Base:
			msg := runner.RunBase(ctx)
			return nil, SwitchOutput{OK: msg.OK(), Message: msg.Text}, nil
		}
		msg := runner.RunTriggerByName(ctx, input.Trigger, issuer.SourceUI)
		return nil, SwitchOutput{OK: msg.OK(), Message: msg.Text}, nil
	}
}

func matchHandler(toolCtx *mcpctx.ToolContext) func(context.Context, *mcp.CallToolRequest, MatchInput) (*mcp.CallToolResult, MatchOutput, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, input MatchInput) (*mcp.CallToolResult, MatchOutput, error) {
		var out MatchOutput
		toolCtx.Svc().Store.View(func(s *profile.Settings) {
			out.Profile = s.ActiveProfile
			if m, ok := trigger.FindCostumeForText(s.Active(), input.Text); ok {
				out.Matched = true
				out.Costume = m.Costume
				out.Trigger = m.Trigger
			}
		})
		return nil, out, nil
	}
}

func profileHandler(toolCtx *mcpctx.ToolContext) func(context.Context, *mcp.CallToolRequest, ProfileInput) (*mcp.CallToolResult, ProfileOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ProfileInput) (*mcp.CallToolResult, ProfileOutput, error) {
		if !slices.Contains(profileActions, input.Action) {
			return nil, ProfileOutput{}, mcpctx.NewValidationError(
				fmt.Sprintf("invalid action '%s', must be: %s", input.Action, strings.Join(profileActions, ", ")),
				"action")
		}

		store := toolCtx.Svc().Store
		if input.Action == "activate" {
			if strings.TrimSpace(input.Name) == "" {
				return nil, ProfileOutput{}, mcpctx.NewValidationError("name is required for activate", "name")
			}
			if _, err := store.SetActive(ctx, input.Name); err != nil {
				if errors.Is(err, profile.ErrProfileNotFound) {
					return nil, ProfileOutput{}, mcpctx.NewNotFoundError(err.Error())
				}
				return nil, ProfileOutput{}, fmt.Errorf("failed to activate profile: %w", err)
			}
		}

		return nil, ProfileOutput{
			Profiles:      store.Names(),
			ActiveProfile: store.ActiveName(),
			Enabled:       store.Enabled(),
		}, nil
	}
}
