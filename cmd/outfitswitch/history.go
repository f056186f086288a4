package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neboloop/outfitswitch/internal/svc"
)

// HistoryCmd lists recorded costume switches. Needs store: sqlite.
func HistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent costume switches",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			withLocal(func(ctx context.Context, svcCtx *svc.ServiceContext) error {
				if svcCtx.DB == nil {
					return errors.New("history is only recorded with store: sqlite")
				}
				entries, err := svcCtx.DB.ListHistory(ctx, limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Println("No costume switches recorded.")
					return nil
				}
				for _, e := range entries {
					mark := "\033[32mok\033[0m "
					if !e.OK {
						mark = "\033[31merr\033[0m"
					}
					fmt.Printf("%s  %s  %-7s %s", e.CreatedAt.Format("2006-01-02 15:04:05"), mark, e.Source, e.Path)
					if e.Trigger != "" {
						fmt.Printf("  (trigger: %s)", e.Trigger)
					}
					fmt.Println()
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	return cmd
}
