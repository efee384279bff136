package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
)

var (
	addr  string
	token string
)

func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "receives live frames from a running server (dev only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchFrames(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr,
		"addr", "http://localhost:8080", "base URL of the playback server")
	cmd.Flags().StringVarP(&token,
		"token", "t", "", "api token")
	return cmd
}

func watchFrames(ctx context.Context) error {
	logger := log.DevLogger(
		os.Stderr,
		log.DebugLevel,
		log.WithCaller(true),
		log.AddCallerSkip(1))
	log.ResetDefault(logger)

	req, err := http.NewRequestWithContext(ctx,
		http.MethodGet, addr+"/api/frames", nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("api-token", token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Error("could not connect", log.ErrorField(err))
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		var frame model.Frame
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			log.Warn("could not decode frame", log.ErrorField(err))
			continue
		}
		log.Debug("got frame",
			log.Uint64("seq", frame.Seq),
			log.Int("cursor", frame.Cursor),
			log.Int("ops", len(frame.Ops)))
	}
	log.Info("done")
	return scanner.Err()
}
