package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/af-corp/nova-gateway/internal/config"
	"github.com/af-corp/nova-gateway/internal/filter"
	"github.com/af-corp/nova-gateway/internal/types"
)

// Detection represents a detected secret in text.
type Detection struct {
	PatternName string
	Start       int // byte offset
	End         int // byte offset
}

// Scanner scans request text for credentials before it reaches a model
// provider. It implements filter.Filter.
type Scanner struct {
	patterns []Pattern
	cfg      func() config.SecretsFilterConfig
}

// NewScanner creates a scanner with the default secret patterns.
func NewScanner(cfg func() config.SecretsFilterConfig) *Scanner {
	return &Scanner{patterns: DefaultPatterns(), cfg: cfg}
}

func (s *Scanner) Name() string  { return "secrets" }
func (s *Scanner) Enabled() bool { return s.cfg().Enabled }

// Scan checks a single text string for secrets and returns all detections.
func (s *Scanner) Scan(text string) []Detection {
	var detections []Detection
	for _, p := range s.patterns {
		for _, loc := range p.Regex.FindAllStringIndex(text, -1) {
			detections = append(detections, Detection{
				PatternName: p.Name,
				Start:       loc[0],
				End:         loc[1],
			})
		}
	}
	return detections
}

// ScanTexts scans every text and returns all detections.
func (s *Scanner) ScanTexts(texts []string) []Detection {
	var detections []Detection
	for _, t := range texts {
		detections = append(detections, s.Scan(t)...)
	}
	return detections
}

// ScanRequest blocks requests whose query or system prompt contains a
// credential. Hits inside attachment text only flag the request.
// Caller-supplied apiKeys are not inspected.
func (s *Scanner) ScanRequest(_ context.Context, req *types.RoutedRequest) filter.Result {
	if detections := s.ScanTexts(req.Texts()); len(detections) > 0 {
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: s.Name(),
			Message:    fmt.Sprintf("Request blocked: possible secret detected (%s)", patternNames(detections)),
			Detections: len(detections),
		}
	}
	if detections := s.ScanTexts(req.AttachmentTexts()); len(detections) > 0 {
		return filter.Result{
			Action:     filter.ActionFlag,
			FilterName: s.Name(),
			Message:    fmt.Sprintf("Attachment contains possible secret (%s)", patternNames(detections)),
			Detections: len(detections),
		}
	}
	return filter.Result{Action: filter.ActionPass, FilterName: s.Name()}
}

func patternNames(detections []Detection) string {
	var names []string
	seen := make(map[string]bool)
	for _, d := range detections {
		if !seen[d.PatternName] {
			seen[d.PatternName] = true
			names = append(names, d.PatternName)
		}
	}
	return strings.Join(names, ", ")
}
