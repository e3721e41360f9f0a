package fetch

import (
	"context"
	"fmt"
	"strings"
)

// JobText fetches a job posting URL and returns its main text content, using
// platform-specific selectors when the URL belongs to a known job board.
func JobText(ctx context.Context, urlStr string) (string, error) {
	result, err := URL(ctx, urlStr, nil)
	if err != nil {
		return "", err
	}

	platform := DetectPlatform(urlStr)
	text, err := ExtractMainText(result.HTML, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)...)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("no readable job text found (platform: %s)", platform),
		}
	}

	return text, nil
}
