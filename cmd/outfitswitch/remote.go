package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/neboloop/outfitswitch/internal/types"
)

var errNotRunning = errors.New("outfit switcher is not running (start it with 'outfitswitch serve')")

// TriggerCmd runs a trigger through the running server so connected hosts
// receive the costume command.
func TriggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <name>",
		Short: "Switch to the costume mapped to a trigger",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			body, _ := json.Marshal(types.RunTriggerRequest{Trigger: args[0]})
			printStatus(postStatus("/api/v1/trigger", body))
		},
	}
}

// VariantCmd runs a variant of the active profile by position (0-based).
func VariantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variant <index>",
		Short: "Switch to a variant of the active profile",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: variant index must be a number\n")
				os.Exit(1)
			}
			printStatus(postStatus(fmt.Sprintf("/api/v1/variants/%d/run", index), nil))
		},
	}
}

// BaseCmd switches back to the active profile's base folder.
func BaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "base",
		Short: "Switch to the active profile's base folder",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printStatus(postStatus("/api/v1/base/run", nil))
		},
	}
}

func serverURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", ServerConfig.Server.Port, path)
}

func postStatus(path string, body []byte) (*types.StatusResponse, error) {
	client := &http.Client{Timeout: ServerConfig.IssuerTimeout() + 5*time.Second}
	resp, err := client.Post(serverURL(path), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, errNotRunning
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(data))
	}

	var st types.StatusResponse
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &st, nil
}

func printStatus(st *types.StatusResponse, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError: %v\033[0m\n", err)
		os.Exit(1)
	}
	if !st.OK {
		fmt.Printf("\033[31m%s\033[0m\n", st.Message)
		os.Exit(1)
	}
	fmt.Printf("\033[32m%s\033[0m\n", st.Message)
}
