// Command novactl inspects routing decisions offline and sends queries to a
// running gateway.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/af-corp/nova-gateway/internal/config"
	"github.com/af-corp/nova-gateway/internal/httputil"
	"github.com/af-corp/nova-gateway/internal/router"
	"github.com/af-corp/nova-gateway/internal/types"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	modelsPath string
	images     int
	documents  int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "novactl",
		Short:        "Inspect and exercise the NOVA search gateway",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.modelsPath, "models", "", "path to models.yaml (built-in catalog when empty)")
	root.PersistentFlags().IntVar(&opts.images, "images", 0, "number of image attachments to simulate")
	root.PersistentFlags().IntVar(&opts.documents, "documents", 0, "number of document attachments to simulate")

	root.AddCommand(newClassifyCmd(opts), newRouteCmd(opts), newSearchCmd())
	return root
}

func newClassifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify QUERY",
		Short: "Print the intent and suggested models for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := loadModels(opts.modelsPath)
			if err != nil {
				return err
			}
			rule := router.TableFromConfig(models).Classify(strings.Join(args, " "), opts.attachments())
			fmt.Fprintf(cmd.OutOrStdout(), "intent:        %s\ngateway model: %s\ndirect model:  %s\n",
				rule.Intent, rule.GatewayModel, rule.DirectModel)
			return nil
		},
	}
}

func newRouteCmd(opts *options) *cobra.Command {
	var (
		model           string
		directKey       bool
		directUnhealthy bool
	)
	cmd := &cobra.Command{
		Use:   "route QUERY",
		Short: "Print the routing decision the gateway would make",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := loadModels(opts.modelsPath)
			if err != nil {
				return err
			}
			atts := opts.attachments()
			rule := router.TableFromConfig(models).Classify(strings.Join(args, " "), atts)
			hasImages := (&types.SearchRequest{Attachments: atts}).HasImages()
			decision := router.ResolveModel(models, rule, model, hasImages, router.Availability{
				DirectCredential: directKey,
				DirectHealthy:    !directUnhealthy,
			})

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Intent types.Intent `json:"intent"`
				types.RoutingDecision
			}{rule.Intent, decision})
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "requested model or auto sentinel")
	cmd.Flags().BoolVar(&directKey, "direct-key", false, "assume a direct-provider credential is available")
	cmd.Flags().BoolVar(&directUnhealthy, "direct-unhealthy", false, "assume the direct provider circuit is open")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		server  string
		model   string
		timeout time.Duration
		raw     bool
	)
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Send a query to a running gateway",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			body, status, err := postSearch(ctx, server, types.SearchRequest{
				Query: strings.Join(args, " "),
				Model: model,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if raw {
				_, err := out.Write(body)
				return err
			}
			return printSearch(out, status, body)
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "gateway base URL")
	cmd.Flags().StringVar(&model, "model", "", "requested model or auto sentinel")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "request timeout")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the raw JSON response")
	return cmd
}

func (o *options) attachments() []types.Attachment {
	var atts []types.Attachment
	for i := range o.images {
		atts = append(atts, types.Attachment{
			Name:    fmt.Sprintf("image-%d.png", i+1),
			Type:    "image/png",
			DataURL: "data:image/png;base64,",
		})
	}
	for i := range o.documents {
		atts = append(atts, types.Attachment{
			Name:        fmt.Sprintf("document-%d.pdf", i+1),
			Type:        "application/pdf",
			ContentText: "(document text)",
		})
	}
	return atts
}

func loadModels(path string) (*config.ModelsConfig, error) {
	models := config.DefaultModelsConfig()
	if path == "" {
		return models, nil
	}
	if err := config.LoadFile(path, models); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("models file %s does not exist", path)
		}
		return nil, fmt.Errorf("load models: %w", err)
	}
	return models, nil
}

func postSearch(ctx context.Context, server string, req types.SearchRequest) ([]byte, int, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/search", bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", httputil.NewRequestID())

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func printSearch(w io.Writer, status int, body []byte) error {
	if status != http.StatusOK {
		var apiErr httputil.APIError
		if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error == "" {
			return fmt.Errorf("gateway returned status %d: %s", status, body)
		}
		return fmt.Errorf("gateway returned status %d: %s", status, apiErr.Error)
	}

	var resp types.SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Fprintf(w, "%s\n\n", resp.Summary)
	fmt.Fprintf(w, "model: %s (intent %s, provider %s, fallback %t, auto %t)\n",
		resp.Meta.Model, resp.Meta.Intent, resp.Meta.Provider, resp.Meta.FallbackUsed, resp.Meta.IsAutoMode)
	for i, s := range resp.Sources {
		fmt.Fprintf(w, "[%d] %s - %s\n", i+1, s.Title, s.URL)
	}
	for _, img := range resp.Images {
		if strings.HasPrefix(img, "data:") {
			fmt.Fprintf(w, "image: %s...\n", img[:min(len(img), 48)])
			continue
		}
		fmt.Fprintf(w, "image: %s\n", img)
	}
	return nil
}
