package injection

import (
	"context"
	"fmt"

	"github.com/af-corp/nova-gateway/internal/config"
	"github.com/af-corp/nova-gateway/internal/filter"
	"github.com/af-corp/nova-gateway/internal/types"
)

// Detection records a matched injection pattern.
type Detection struct {
	RuleName string
	Severity float64
	Category string
	Start    int
	End      int
}

// Scanner scores the query and attachment text for prompt-injection
// attempts against the NOVA persona.
type Scanner struct {
	rules []Rule
	cfg   func() config.InjectionFilterConfig
}

// NewScanner creates a prompt injection scanner.
func NewScanner(cfg func() config.InjectionFilterConfig) *Scanner {
	return &Scanner{rules: DefaultRules(), cfg: cfg}
}

func (s *Scanner) Name() string  { return "injection" }
func (s *Scanner) Enabled() bool { return s.cfg().Enabled }

// Scan checks a single text string and returns all detections.
func (s *Scanner) Scan(text string) []Detection {
	var detections []Detection
	for _, r := range s.rules {
		for _, loc := range r.Regex.FindAllStringIndex(text, -1) {
			detections = append(detections, Detection{
				RuleName: r.Name,
				Severity: r.Severity,
				Category: r.Category,
				Start:    loc[0],
				End:      loc[1],
			})
		}
	}
	return detections
}

// ScanTexts scans all texts and returns detections and the max severity score.
func (s *Scanner) ScanTexts(texts []string) ([]Detection, float64) {
	var all []Detection
	maxScore := 0.0
	for _, t := range texts {
		detections := s.Scan(t)
		all = append(all, detections...)
		for _, d := range detections {
			maxScore = max(maxScore, d.Severity)
		}
	}
	return all, maxScore
}

// ScanRequest implements filter.Filter. The caller's own system prompt is
// trusted and not scored.
func (s *Scanner) ScanRequest(_ context.Context, req *types.RoutedRequest) filter.Result {
	detections, score := s.ScanTexts(append([]string{req.Search.Query}, req.AttachmentTexts()...))
	cfg := s.cfg()

	switch {
	case score >= cfg.BlockThreshold:
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: s.Name(),
			Message:    fmt.Sprintf("Request blocked: prompt injection detected (score %.2f)", score),
			Detections: len(detections),
			Score:      score,
		}
	case score >= cfg.FlagThreshold:
		return filter.Result{
			Action:     filter.ActionFlag,
			FilterName: s.Name(),
			Detections: len(detections),
			Score:      score,
		}
	default:
		return filter.Result{Action: filter.ActionPass, FilterName: s.Name(), Score: score}
	}
}
