package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/neboloop/outfitswitch/internal/issuer"
	"github.com/neboloop/outfitswitch/internal/logging"
	"github.com/neboloop/outfitswitch/internal/svc"
)

// withLocal opens the configured settings store without serving and runs
// fn against it. Pending edits are saved on the way out.
func withLocal(fn func(ctx context.Context, svcCtx *svc.ServiceContext) error) {
	if !verbose {
		logging.Disable()
	}

	ctx := context.Background()
	svcCtx, err := svc.NewServiceContext(ctx, ServerConfig,
		svc.WithExecutor(issuer.LogExecutor{Logger: logging.Named("cli")}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening settings: %v\n", err)
		os.Exit(1)
	}

	err = fn(ctx, svcCtx)
	svcCtx.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
