package ptz

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

// HTTPCameraLink drives a hi3510-based IP camera through its CGI interface.
type HTTPCameraLink struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

func NewHTTPCameraLink(host, username, password string, timeout time.Duration) *HTTPCameraLink {
	base := host
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &HTTPCameraLink{
		baseURL:  strings.TrimRight(base, "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *HTTPCameraLink) Send(ctx context.Context, cmd Command) error {
	// The CGI expects dash-prefixed keys in a fixed order. Stop takes no
	// step or speed.
	query := "-act=" + url.QueryEscape(cmd.Action.String())
	if cmd.Action != models.PTZStop {
		query = fmt.Sprintf("-step=%d&%s&-speed=%d", cmd.Step, query, cmd.Speed)
	}
	return c.get(ctx, "/cgi-bin/hi3510/ptzctrl.cgi?"+query)
}

// Probe checks the camera answers with the configured credentials.
func (c *HTTPCameraLink) Probe(ctx context.Context) error {
	if err := c.get(ctx, "/cgi-bin/hi3510/param.cgi?cmd=getnetattr"); err != nil {
		return err
	}
	log.Info().Str("camera", c.baseURL).Msg("PTZ camera reachable")
	return nil
}

func (c *HTTPCameraLink) get(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("camera request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("camera returned status %d", resp.StatusCode)
	}
	return nil
}
