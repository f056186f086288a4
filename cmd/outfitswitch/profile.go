package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/neboloop/outfitswitch/internal/profile"
	"github.com/neboloop/outfitswitch/internal/svc"
)

// ProfileCmd manages outfit profiles in the local settings store.
func ProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage outfit profiles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			withLocal(func(_ context.Context, svcCtx *svc.ServiceContext) error {
				listProfiles(svcCtx)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the active profile",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			withLocal(func(_ context.Context, svcCtx *svc.ServiceContext) error {
				showProfile(svcCtx.Store.ActiveName(), svcCtx.Store.ActiveProfile())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create [name]",
		Short: "Create an empty profile and switch to it",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withLocal(func(ctx context.Context, svcCtx *svc.ServiceContext) error {
				name, err := svcCtx.Store.Create(ctx, firstArg(args), nil)
				if err != nil {
					return err
				}
				fmt.Printf("Created profile %q.\n", name)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "duplicate [name]",
		Short: "Copy the active profile and switch to the copy",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withLocal(func(ctx context.Context, svcCtx *svc.ServiceContext) error {
				name, err := svcCtx.Store.Duplicate(ctx, firstArg(args))
				if err != nil {
					return err
				}
				fmt.Printf("Duplicated into %q.\n", name)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <name>",
		Short: "Rename the active profile",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withLocal(func(ctx context.Context, svcCtx *svc.ServiceContext) error {
				name, err := svcCtx.Store.Rename(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Renamed to %q.\n", name)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Delete the active profile",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			withLocal(func(ctx context.Context, svcCtx *svc.ServiceContext) error {
				deleted, active, err := svcCtx.Store.Delete(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Deleted %q. Active profile is now %q.\n", deleted, active)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "use <name>",
		Short: "Switch the active profile",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withLocal(func(ctx context.Context, svcCtx *svc.ServiceContext) error {
				changed, err := svcCtx.Store.SetActive(ctx, args[0])
				if err != nil {
					return err
				}
				if !changed {
					fmt.Printf("%q is already active.\n", svcCtx.Store.ActiveName())
					return nil
				}
				fmt.Printf("Switched to %q.\n", svcCtx.Store.ActiveName())
				return nil
			})
		},
	})

	var outPath string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the active profile to a JSON file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			withLocal(func(_ context.Context, svcCtx *svc.ServiceContext) error {
				exp, data, err := svcCtx.Store.Export()
				if err != nil {
					return err
				}
				path := outPath
				if path == "" {
					path = profile.ExportFileName(exp.Name)
				}
				if path == "-" {
					_, err = os.Stdout.Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(path, data, 0644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				fmt.Printf("Exported %q to %s.\n", exp.Name, path)
				return nil
			})
		},
	}
	exportCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file, or - for stdout (default: <profile>.json)")
	cmd.AddCommand(exportCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import a profile from a JSON file and switch to it",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			withLocal(func(ctx context.Context, svcCtx *svc.ServiceContext) error {
				name, err := svcCtx.Store.Import(ctx, data, filepath.Base(args[0]))
				if err != nil {
					return err
				}
				fmt.Printf("Imported profile %q.\n", name)
				return nil
			})
		},
	})

	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func listProfiles(svcCtx *svc.ServiceContext) {
	svcCtx.Store.View(func(s *profile.Settings) {
		fmt.Println("Profiles:")
		for _, name := range s.Profiles.Names() {
			p := s.Profiles.Get(name)
			marker := " "
			if name == s.ActiveProfile {
				marker = "*"
			}
			fmt.Printf(" %s %s (%d triggers, %d variants)\n", marker, name, len(p.Triggers), len(p.Variants))
		}
		if !s.Enabled {
			fmt.Println("\nAutomatic switching is disabled.")
		}
	})
}

func showProfile(name string, p *profile.Profile) {
	fmt.Printf("Profile:     %s\n", name)
	fmt.Printf("Base folder: %s\n", orDash(p.BaseFolder))

	if len(p.Variants) > 0 {
		fmt.Println("\nVariants:")
		for i, v := range p.Variants {
			fmt.Printf("  [%d] %s -> %s\n", i, orDash(v.Name), orDash(v.Folder))
		}
	}
	if len(p.Triggers) > 0 {
		fmt.Println("\nTriggers:")
		for _, t := range p.Triggers {
			fmt.Printf("  %v -> %s\n", t.Strings(), orDash(t.Folder))
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
