package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	eventsServerURL string
	eventsTimeout   time.Duration
	eventsData      string
)

// eventsClient talks to a running server's /events API.
type eventsClient struct {
	baseURL string
	http    *http.Client
}

func newEventsClient(baseURL string, timeout time.Duration) *eventsClient {
	return &eventsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// statusError is returned for any unexpected response status. The API sends
// empty bodies on errors so only the status is available.
type statusError struct {
	Method string
	URL    string
	Status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s %s: server returned %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
}

func (c *eventsClient) do(ctx context.Context, method, path string, body io.Reader, want int) (*http.Response, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	if resp.StatusCode != want {
		_ = resp.Body.Close()
		return nil, &statusError{Method: method, URL: url, Status: resp.StatusCode}
	}
	return resp, nil
}

func (c *eventsClient) List(ctx context.Context) ([]json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, "/events", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return items, nil
}

func (c *eventsClient) Get(ctx context.Context, id string) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, "/events/"+id, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var item json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return item, nil
}

// Create posts the event and returns the Location of the new resource.
func (c *eventsClient) Create(ctx context.Context, event []byte) (string, error) {
	if !json.Valid(event) {
		return "", fmt.Errorf("event data is not valid JSON")
	}
	resp, err := c.do(ctx, http.MethodPost, "/events", bytes.NewReader(event), http.StatusCreated)
	if err != nil {
		return "", err
	}
	_ = resp.Body.Close()
	return resp.Header.Get("Location"), nil
}

func (c *eventsClient) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/events/"+id, nil, http.StatusNoContent)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func newEventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Work with events on a running server",
		Long: `List, fetch, create and delete events through the HTTP API.

Examples:
  server events list
  server events get 42
  server events create --data '{"name":"Launch party"}'
  echo '{"name":"Launch party"}' | server events create
  server events delete 42 --server http://localhost:9090`,
	}
	cmd.PersistentFlags().StringVar(&eventsServerURL, "server", "http://localhost:8080", "events API base URL")
	cmd.PersistentFlags().DurationVar(&eventsTimeout, "timeout", 10*time.Second, "request timeout")

	client := func() *eventsClient { return newEventsClient(eventsServerURL, eventsTimeout) }

	list := &cobra.Command{
		Use:   "list",
		Short: "List all events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := client().List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Fetch one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := client().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), item)
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an event from --data or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := []byte(eventsData)
			if eventsData == "" {
				var err error
				if data, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			}
			location, err := client().Create(cmd.Context(), bytes.TrimSpace(data))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), location)
			return nil
		},
	}
	create.Flags().StringVar(&eventsData, "data", "", "event JSON object (reads stdin when empty)")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted event %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, get, create, del)
	return cmd
}

func printJSON(out io.Writer, v any) error {
	if out == nil {
		out = os.Stdout
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
