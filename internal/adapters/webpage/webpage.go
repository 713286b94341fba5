// Package webpage enumerates a channel by scraping its /videos page without
// a browser. Only the videos present in the first server-rendered page are
// visible this way (about 30 on a typical channel).
package webpage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"mailscout/internal/core/domain"
	"mailscout/internal/platform/httpclient"
	"mailscout/internal/platform/logx"
)

// consentCookie skips the EU cookie wall that replaces the channel page.
const consentCookie = "CONSENT=YES+cb.20210328-17-p0.en+FX+000; SOCS=CAI"

// videoIDPattern matches ids embedded in the page's initial data script.
var videoIDPattern = regexp.MustCompile(`"videoId":"([A-Za-z0-9_-]{6,})"`)

// shortsPrefixes open the JSON objects that carry Shorts ids.
var shortsPrefixes = [][]byte{
	[]byte(`"reelWatchEndpoint":{`),
	[]byte(`"reelItemRenderer":{`),
}

// Enumerator scrapes channel pages.
type Enumerator struct {
	client *httpclient.Client
	logger logx.Logger
}

// NewEnumerator creates an enumerator. client may be nil.
func NewEnumerator(client *httpclient.Client, logger logx.Logger) *Enumerator {
	if logger == nil {
		logger = logx.NewNop()
	}
	if client == nil {
		cfg := httpclient.DefaultConfig()
		cfg.Headers = map[string]string{
			"Cookie":          consentCookie,
			"Accept-Language": "en-US,en;q=0.9",
		}
		client = httpclient.New(cfg, logger)
	}
	return &Enumerator{
		client: client,
		logger: logger.With("component", "webpage-enumerator"),
	}
}

// Name returns the backend name.
func (e *Enumerator) Name() string {
	return "webpage"
}

// Enumerate fetches the channel page and collects video IDs in page order.
func (e *Enumerator) Enumerate(ctx context.Context, channelURL string, maxVideos int) ([]string, error) {
	resp, err := e.client.Get(ctx, channelURL, nil)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", channelURL, err)
	}

	if err := httpclient.CheckStatus(resp); err != nil {
		resp.Body.Close()
		if errors.Is(err, httpclient.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrChannelNotFound, channelURL)
		}
		return nil, fmt.Errorf("load %s: %w", channelURL, err)
	}

	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	ids := ExtractVideoIDs(bytes.NewReader(body), maxVideos)
	e.logger.Debug("channel page parsed", "channel", channelURL, "bytes", len(body), "videos", len(ids))
	return ids, nil
}

// Close is a no-op: requests do not keep a session.
func (e *Enumerator) Close() error {
	return nil
}

// ExtractVideoIDs walks an HTML document and returns video IDs from
// watch links and from inline scripts, deduplicated in order of first
// appearance. Shorts are skipped. limit <= 0 means no limit.
func ExtractVideoIDs(r io.Reader, limit int) []string {
	c := &collector{limit: limit, seen: make(map[string]struct{})}
	z := html.NewTokenizer(r)
	inScript := false

	for !c.full() {
		switch z.Next() {
		case html.ErrorToken:
			return c.ids

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "script":
				inScript = true
			case "a":
				if hasAttr {
					c.addHref(hrefOf(z))
				}
			}

		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "script" {
				inScript = false
			}

		case html.TextToken:
			if inScript {
				text := z.Text()
				for _, m := range videoIDPattern.FindAllSubmatchIndex(text, -1) {
					if isShort(text[:m[0]]) {
						continue
					}
					c.add(string(text[m[2]:m[3]]))
					if c.full() {
						break
					}
				}
			}
		}
	}
	return c.ids
}

type collector struct {
	ids   []string
	seen  map[string]struct{}
	limit int
}

func (c *collector) full() bool {
	return c.limit > 0 && len(c.ids) >= c.limit
}

func (c *collector) add(id string) {
	if id == "" || c.full() {
		return
	}
	if _, dup := c.seen[id]; dup {
		return
	}
	c.seen[id] = struct{}{}
	c.ids = append(c.ids, id)
}

func (c *collector) addHref(href string) {
	if !strings.Contains(href, "/watch?v=") || strings.Contains(href, "/shorts/") {
		return
	}
	u, err := url.Parse(href)
	if err != nil {
		return
	}
	c.add(u.Query().Get("v"))
}

// isShort reports whether a "videoId" key starting right after before
// belongs to a Shorts object.
func isShort(before []byte) bool {
	for _, p := range shortsPrefixes {
		if bytes.HasSuffix(before, p) {
			return true
		}
	}
	return false
}

func hrefOf(z *html.Tokenizer) string {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "href" {
			return string(val)
		}
		if !more {
			return ""
		}
	}
}
