// Package obs drives the external OBS Studio screen recorder over its
// websocket remote-control protocol. The session engine only needs the
// start/stop/pause/resume surface; everything else here is configuration
// plumbing so a recording lands in the session directory with sane settings.
package obs

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/andreykaipov/goobs"
	goobsevents "github.com/andreykaipov/goobs/api/events"
	"github.com/andreykaipov/goobs/api/events/subscriptions"
	goobsconfig "github.com/andreykaipov/goobs/api/requests/config"
	"github.com/andreykaipov/goobs/api/requests/inputs"

	"github.com/duckai/ducktrack/internal/events"
)

// ErrUnreachable reports that OBS could not be reached after the bounded
// connection retries.
var ErrUnreachable = errors.New("obs websocket unreachable")

// Options configure the websocket connection and the recording profile.
type Options struct {
	Host            string
	Port            int
	Password        string
	FPS             int
	OutputWidth     int
	OutputHeight    int
	ProfileName     string
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Host == "" {
		o.Host = "localhost"
	}
	if o.Port <= 0 {
		o.Port = 4455
	}
	if o.FPS <= 0 {
		o.FPS = 30
	}
	if o.OutputWidth <= 0 {
		o.OutputWidth = 1280
	}
	if o.OutputHeight <= 0 {
		o.OutputHeight = 720
	}
	if o.ProfileName == "" {
		o.ProfileName = "ducktrack"
	}
	if o.ConnectAttempts <= 0 {
		o.ConnectAttempts = 3
	}
	if o.ConnectBackoff <= 0 {
		o.ConnectBackoff = 2 * time.Second
	}
	return o
}

// Client is the remote-control proxy for OBS.
type Client struct {
	client *goobs.Client
	opts   Options

	oldProfile string

	mu          sync.Mutex
	stateEvents map[string][]float64
}

// Connect dials the OBS websocket with bounded retries. Exhausting the
// retries returns ErrUnreachable; that is fatal only during session start.
func Connect(opts Options) (*Client, error) {
	opts = opts.withDefaults()
	address := fmt.Sprintf("%s:%d", opts.Host, opts.Port)

	var inner *goobs.Client
	var err error
	for attempt := 1; attempt <= opts.ConnectAttempts; attempt++ {
		slog.Info("Connecting to OBS websocket", "address", address, "attempt", attempt, "max_attempts", opts.ConnectAttempts)
		inner, err = goobs.New(address,
			goobs.WithPassword(opts.Password),
			goobs.WithEventSubscriptions(subscriptions.Outputs),
		)
		if err == nil {
			break
		}
		slog.Error("OBS websocket connection failed", "error", err)
		if attempt < opts.ConnectAttempts {
			time.Sleep(opts.ConnectBackoff)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	c := &Client{
		client:      inner,
		opts:        opts,
		stateEvents: make(map[string][]float64),
	}

	if version, err := inner.General.GetVersion(); err != nil {
		slog.Warn("OBS connected but version query failed", "error", err)
	} else {
		slog.Info("Connected to OBS", "version", version.ObsVersion)
	}

	go inner.Listen(func(event any) {
		if changed, ok := event.(*goobsevents.RecordStateChanged); ok {
			c.recordStateChanged(changed.OutputState)
		}
	})

	return c, nil
}

// recordStateChanged collects recorder state notifications with their own
// monotonic timestamps for later correlation by the metadata collaborator.
func (c *Client) recordStateChanged(state string) {
	slog.Info("OBS record state changed", "state", state)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateEvents[state] = append(c.stateEvents[state], events.Now())
}

// StateTimings returns a copy of the collected state-change timestamps.
func (c *Client) StateTimings() map[string][]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]float64, len(c.stateEvents))
	for state, stamps := range c.stateEvents {
		out[state] = append([]float64(nil), stamps...)
	}
	return out
}

// Configure switches OBS to the recording profile and applies the video
// parameters derived from the collaborator-supplied metadata. Every
// individual parameter call is allowed to fail without aborting the rest.
func (c *Client) Configure(recordingPath string, meta map[string]any) error {
	profiles, err := c.client.Config.GetProfileList()
	if err != nil {
		slog.Warn("Unable to query OBS profiles, continuing with current profile", "error", err)
	} else {
		c.oldProfile = profiles.CurrentProfileName
		if !containsProfile(profiles.Profiles, c.opts.ProfileName) {
			if _, err := c.client.Config.CreateProfile(goobsconfig.NewCreateProfileParams().WithProfileName(c.opts.ProfileName)); err != nil {
				slog.Warn("Unable to create OBS profile", "profile", c.opts.ProfileName, "error", err)
			}
		}
		if _, err := c.client.Config.SetCurrentProfile(goobsconfig.NewSetCurrentProfileParams().WithProfileName(c.opts.ProfileName)); err != nil {
			slog.Warn("Unable to switch OBS profile, continuing with current profile", "profile", c.opts.ProfileName, "error", err)
		}
	}

	baseWidth := metaInt(meta, "screen_width", 1920)
	baseHeight := metaInt(meta, "screen_height", 1080)
	if system, _ := meta["system"].(string); system == "darwin" {
		// Retina displays report logical points; OBS wants pixels.
		baseWidth *= 2
		baseHeight *= 2
	}

	scaledWidth, scaledHeight := scaleResolution(baseWidth, baseHeight, c.opts.OutputWidth, c.opts.OutputHeight)
	bitrate := int(bitrateMbps(scaledWidth, scaledHeight, c.opts.FPS)*1000/50) * 50

	c.setParam("Video", "BaseCX", fmt.Sprintf("%d", baseWidth))
	c.setParam("Video", "BaseCY", fmt.Sprintf("%d", baseHeight))
	c.setParam("Video", "OutputCX", fmt.Sprintf("%d", scaledWidth))
	c.setParam("Video", "OutputCY", fmt.Sprintf("%d", scaledHeight))
	c.setParam("Video", "ScaleType", "lanczos")

	rescale := fmt.Sprintf("%dx%d", baseWidth, baseHeight)
	c.setParam("AdvOut", "RescaleRes", rescale)
	c.setParam("AdvOut", "RecRescaleRes", rescale)
	c.setParam("AdvOut", "FFRescaleRes", rescale)

	c.setParam("Video", "FPSCommon", fmt.Sprintf("%d", c.opts.FPS))
	c.setParam("Video", "FPSInt", fmt.Sprintf("%d", c.opts.FPS))
	c.setParam("Video", "FPSNum", fmt.Sprintf("%d", c.opts.FPS))
	c.setParam("Video", "FPSDen", "1")

	c.setParam("SimpleOutput", "RecFormat2", "mp4")
	c.setParam("SimpleOutput", "VBitrate", fmt.Sprintf("%d", bitrate))
	// "Small" quality is what unlocks pause/resume in simple output mode.
	c.setParam("SimpleOutput", "RecQuality", "Small")
	c.setParam("SimpleOutput", "FilePath", recordingPath)

	if _, err := c.client.Inputs.SetInputMute(inputs.NewSetInputMuteParams().WithInputName("Mic/Aux").WithInputMuted(true)); err != nil {
		// Not every OBS setup has a Mic/Aux input.
		slog.Debug("Unable to mute Mic/Aux input", "error", err)
	}

	return nil
}

// setParam applies one profile parameter, logging and skipping on failure.
func (c *Client) setParam(category, name, value string) {
	_, err := c.client.Config.SetProfileParameter(goobsconfig.NewSetProfileParameterParams().
		WithParameterCategory(category).
		WithParameterName(name).
		WithParameterValue(value))
	if err != nil {
		slog.Warn("OBS profile parameter rejected", "category", category, "name", name, "error", err)
	}
}

// StartRecord begins screen capture. A failure here is fatal to the session.
func (c *Client) StartRecord() error {
	if _, err := c.client.Record.StartRecord(); err != nil {
		return fmt.Errorf("obs start record: %w", err)
	}
	return nil
}

// StopRecord stops screen capture and restores the previous profile. Both
// steps are best-effort.
func (c *Client) StopRecord() error {
	_, err := c.client.Record.StopRecord()

	if c.oldProfile != "" {
		if _, restoreErr := c.client.Config.SetCurrentProfile(goobsconfig.NewSetCurrentProfileParams().WithProfileName(c.oldProfile)); restoreErr != nil {
			slog.Warn("Unable to restore previous OBS profile", "profile", c.oldProfile, "error", restoreErr)
		}
	}

	if err != nil {
		return fmt.Errorf("obs stop record: %w", err)
	}
	return nil
}

// PauseRecord pauses screen capture.
func (c *Client) PauseRecord() error {
	if _, err := c.client.Record.PauseRecord(); err != nil {
		return fmt.Errorf("obs pause record: %w", err)
	}
	return nil
}

// ResumeRecord resumes screen capture.
func (c *Client) ResumeRecord() error {
	if _, err := c.client.Record.ResumeRecord(); err != nil {
		return fmt.Errorf("obs resume record: %w", err)
	}
	return nil
}

// Close disconnects the websocket.
func (c *Client) Close() error {
	return c.client.Disconnect()
}

func containsProfile(profiles []string, name string) bool {
	for _, profile := range profiles {
		if profile == name {
			return true
		}
	}
	return false
}

func metaInt(meta map[string]any, key string, fallback int) int {
	switch v := meta[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return fallback
}
