package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neboloop/outfitswitch/internal/profile"
	"github.com/neboloop/outfitswitch/internal/svc"
	"github.com/neboloop/outfitswitch/internal/trigger"
)

// MatchCmd dry-runs trigger matching against the active profile.
func MatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <text>",
		Short: "Show which costume a message would switch to",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			text := strings.Join(args, " ")
			withLocal(func(_ context.Context, svcCtx *svc.ServiceContext) error {
				var (
					m  trigger.Match
					ok bool
				)
				svcCtx.Store.View(func(s *profile.Settings) {
					m, ok = trigger.FindCostumeForText(s.Active(), text)
				})
				if !ok {
					fmt.Println("No trigger matched.")
					return nil
				}
				fmt.Printf("%s  (trigger: %s)\n", m.Costume, m.Trigger)
				return nil
			})
		},
	}
}

// EnableCmd turns automatic switching on.
func EnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Enable automatic costume switching",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			setEnabled(true)
		},
	}
}

// DisableCmd turns automatic switching off.
func DisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Disable automatic costume switching",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			setEnabled(false)
		},
	}
}

func setEnabled(on bool) {
	withLocal(func(_ context.Context, svcCtx *svc.ServiceContext) error {
		svcCtx.Store.SetEnabled(on)
		if on {
			fmt.Println("Outfit Switcher enabled.")
		} else {
			fmt.Println("Outfit Switcher disabled.")
		}
		return nil
	})
}
