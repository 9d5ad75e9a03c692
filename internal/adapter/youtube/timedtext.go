package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
)

const maxCaptionBytes = 512 * 1024

var markupTag = regexp.MustCompile(`<[^>]*>`)

type innerXML struct {
	Inner string `xml:",innerxml"`
}

// timedText covers both caption XML formats: <transcript><text> and the
// format 3 <timedtext><body><p> variant.
type timedText struct {
	Lines      []innerXML `xml:"text"`
	Paragraphs []innerXML `xml:"body>p"`
}

func fetchTimedText(ctx context.Context, client *http.Client, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch timedtext: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCaptionBytes))
	if err != nil {
		return "", err
	}
	return parseTimedText(body)
}

func parseTimedText(body []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	var sb strings.Builder
	for _, el := range append(tt.Lines, tt.Paragraphs...) {
		text := cleanCaption(el.Inner)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// cleanCaption turns the inner XML of one caption element into plain text.
// Markup may arrive raw or entity-escaped, and text is often escaped twice.
func cleanCaption(s string) string {
	for range 2 {
		s = markupTag.ReplaceAllString(html.UnescapeString(s), "")
	}
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
