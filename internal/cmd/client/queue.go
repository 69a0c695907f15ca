package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

// NewQueueCommand constructs the `queue` command group and subcommands.
func NewQueueCommand(baseURL BaseURLFunc) *cobra.Command {
	queueCmd := &cobra.Command{Use: "queue", Short: "Realtime queue operations"}

	queueCmd.AddCommand(
		newQueuePushCommand(baseURL),
		newQueueRegisterCommand(baseURL),
		newQueueUnregisterCommand(baseURL),
		newQueueAckCommand(baseURL),
		newQueueStatusCommand(baseURL),
		newQueueDumpCommand(baseURL),
		newQueueSubscribeCommand(baseURL),
	)

	return queueCmd
}

// newQueuePushCommand constructs the `queue push` subcommand.
func newQueuePushCommand(baseURL BaseURLFunc) *cobra.Command {
	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Push a mutation payload onto the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, _ := cmd.Flags().GetString("data")
			if data == "" {
				return fmt.Errorf("--data is required")
			}
			var resp struct {
				Seq      uint64 `json:"seq"`
				Filtered bool   `json:"filtered"`
			}
			req := map[string][]byte{"payload": []byte(data)}
			if err := postJSON(cmd.Context(), baseURL()+"/v1/queue/push", req, &resp); err != nil {
				return err
			}
			if resp.Filtered {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "FILTERED")
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "seq:", resp.Seq)
			return nil
		},
	}
	pushCmd.Flags().String("data", "", "Payload data")
	return pushCmd
}

// newQueueRegisterCommand constructs the `queue register` subcommand.
func newQueueRegisterCommand(baseURL BaseURLFunc) *cobra.Command {
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Register a consumer (sink site)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			var resp map[string]uint64
			if err := postJSON(cmd.Context(), baseURL()+"/v1/queue/register", map[string]string{"name": name}, &resp); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "start_seq:", resp["start_seq"])
			return nil
		},
	}
	registerCmd.Flags().String("name", "", "Consumer name")
	return registerCmd
}

// newQueueUnregisterCommand constructs the `queue unregister` subcommand.
func newQueueUnregisterCommand(baseURL BaseURLFunc) *cobra.Command {
	unregisterCmd := &cobra.Command{
		Use:   "unregister",
		Short: "Unregister a consumer and drop its cursor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if err := postJSON(cmd.Context(), baseURL()+"/v1/queue/unregister", map[string]string{"name": name}, nil); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
	unregisterCmd.Flags().String("name", "", "Consumer name")
	return unregisterCmd
}

// newQueueAckCommand constructs the `queue ack` subcommand.
func newQueueAckCommand(baseURL BaseURLFunc) *cobra.Command {
	ackCmd := &cobra.Command{
		Use:   "ack",
		Short: "Acknowledge delivery through a sequence number",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			seq, _ := cmd.Flags().GetUint64("seq")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			req := struct {
				Name string `json:"name"`
				Seq  uint64 `json:"seq"`
			}{Name: name, Seq: seq}
			if err := postJSON(cmd.Context(), baseURL()+"/v1/queue/ack", req, nil); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
	ackCmd.Flags().String("name", "", "Consumer name")
	ackCmd.Flags().Uint64("seq", 0, "Sequence number to ack through")
	return ackCmd
}

// newQueueStatusCommand constructs the `queue status` subcommand.
func newQueueStatusCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue stats and per-consumer backlog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var data any
			if err := getJSON(cmd.Context(), baseURL()+"/v1/queue/status", &data); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
}

// newQueueDumpCommand constructs the `queue dump` subcommand.
func newQueueDumpCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "List every retained entry (diagnostic)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var data struct {
				Entries []struct {
					Seq     uint64 `json:"seq"`
					TsMs    int64  `json:"ts_ms"`
					Payload []byte `json:"payload"`
				} `json:"entries"`
				Count int `json:"count"`
			}
			if err := getJSON(cmd.Context(), baseURL()+"/v1/queue/dump", &data); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, e := range data.Entries {
				_ = enc.Encode(decodedEntry(e.Seq, e.TsMs, e.Payload))
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "count:", data.Count)
			return nil
		},
	}
}

// newQueueSubscribeCommand constructs the `queue subscribe` subcommand.
func newQueueSubscribeCommand(baseURL BaseURLFunc) *cobra.Command {
	subscribeCmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Stream deliveries over SSE",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			limit, _ := cmd.Flags().GetInt("limit")
			noAck, _ := cmd.Flags().GetBool("no-ack")

			url := fmt.Sprintf("%s/v1/queue/subscribe?limit=%d", baseURL(), limit)
			if name != "" {
				url += "&name=" + name
			}
			if noAck {
				url += "&auto_ack=false"
			}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode >= 300 {
				return fmt.Errorf("http error: %s", resp.Status)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			sc := bufio.NewScanner(resp.Body)
			sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
			for sc.Scan() {
				line := sc.Text()
				if !strings.HasPrefix(line, "data: ") {
					continue
				}
				var it struct {
					Seq     uint64 `json:"seq"`
					Payload []byte `json:"payload"`
				}
				if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &it); err != nil {
					return fmt.Errorf("bad frame: %w", err)
				}
				_ = enc.Encode(decodedEntry(it.Seq, 0, it.Payload))
			}
			return sc.Err()
		},
	}
	subscribeCmd.Flags().String("name", "", "Consumer name (empty = anonymous)")
	subscribeCmd.Flags().Int("limit", 0, "Stop after N deliveries (0 = infinite)")
	subscribeCmd.Flags().Bool("no-ack", false, "Don't auto-ack deliveries")
	return subscribeCmd
}
