package tailor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/resume-studio/internal/llm"
	"github.com/jonathan/resume-studio/internal/prompts"
	"github.com/jonathan/resume-studio/internal/types"
)

// rewriteCount is the number of alternatives a rewrite must return.
const rewriteCount = 3

// RewriteBullet generates three alternative phrasings of a single bullet in
// the requested tone. An empty tone defaults to impact.
func (a *Analyzer) RewriteBullet(ctx context.Context, bullet string, tone types.RewriteTone, targetRole string) ([]string, error) {
	if strings.TrimSpace(bullet) == "" {
		return nil, fmt.Errorf("bullet text is required")
	}
	if tone == "" {
		tone = types.ToneImpact
	}

	toneInstruction, err := prompts.Get("tailor.json", "tone-"+string(tone))
	if err != nil {
		return nil, fmt.Errorf("unsupported tone %q: %w", tone, err)
	}

	roleLine := ""
	if targetRole != "" {
		roleLine = "Target role: " + targetRole + "\n"
	}

	prompt := prompts.Format(prompts.MustGet("tailor.json", "rewrite-bullet"), map[string]string{
		"ToneInstruction": toneInstruction,
		"RoleLine":        roleLine,
		"Bullet":          bullet,
	})

	raw, err := a.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &GeneratorError{Message: "generation failed", Cause: err}
	}

	var suggestions []string
	if err := json.Unmarshal([]byte(raw), &suggestions); err != nil {
		return nil, &GeneratorError{Message: "response is not a JSON string array", Cause: err}
	}
	if len(suggestions) != rewriteCount {
		return nil, &GeneratorError{Message: fmt.Sprintf("expected %d suggestions, got %d", rewriteCount, len(suggestions))}
	}
	for _, s := range suggestions {
		if strings.TrimSpace(s) == "" {
			return nil, &GeneratorError{Message: "empty suggestion in response"}
		}
	}

	return suggestions, nil
}
