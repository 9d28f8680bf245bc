package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var errNoVideoStream = errors.New("no video stream")

// probeResult is the subset of ffprobe's JSON output used to fill [Info].
type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NBFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Probe runs ffprobe against path and returns the metadata of its first video
// stream.
func Probe(ctx context.Context, path string, opts ...Option) (Info, error) {
	o := newOptions(opts)

	//nolint:gosec // The binary and path are caller-provided, not untrusted input.
	cmd := exec.CommandContext(ctx, o.ffprobe,
		"-v", "error",
		"-hide_banner",
		"-select_streams", "v:0",
		"-show_format",
		"-show_streams",
		"-of", "json",
		"--", path,
	)

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Info{}, fmt.Errorf("%w: ffprobe: %w: %s",
				ErrSourceUnavailable, err, strings.TrimSpace(string(exitErr.Stderr)))
		}

		return Info{}, fmt.Errorf("%w: ffprobe: %w", ErrSourceUnavailable, err)
	}

	info, err := parseProbe(out)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, path, err)
	}

	return info, nil
}

// parseProbe converts ffprobe JSON into [Info]. The frame count comes from
// nb_frames when the container records it and is estimated from duration
// and frame rate otherwise.
func parseProbe(data []byte) (Info, error) {
	var res probeResult

	err := json.Unmarshal(data, &res)
	if err != nil {
		return Info{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	for _, s := range res.Streams {
		if !strings.EqualFold(s.CodecType, "video") {
			continue
		}

		fps := parseRate(s.AvgFrameRate)
		if fps <= 0 {
			fps = parseRate(s.RFrameRate)
		}

		if fps <= 0 || s.Width <= 0 || s.Height <= 0 {
			return Info{}, fmt.Errorf("%w: unusable stream %dx%d at %q",
				errNoVideoStream, s.Width, s.Height, s.AvgFrameRate)
		}

		secs := parseSeconds(s.Duration)
		if secs <= 0 {
			secs = parseSeconds(res.Format.Duration)
		}

		count, err := strconv.Atoi(strings.TrimSpace(s.NBFrames))
		if err != nil || count <= 0 {
			count = int(math.Round(secs * fps))
		}

		if secs <= 0 {
			secs = float64(count) / fps
		}

		return Info{
			Width:      s.Width,
			Height:     s.Height,
			FPS:        fps,
			FrameCount: count,
			Duration:   time.Duration(secs * float64(time.Second)),
		}, nil
	}

	return Info{}, errNoVideoStream
}

// parseRate parses an ffprobe rational such as "30000/1001". It returns 0
// for missing or degenerate rates.
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return parseSeconds(num)
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}

	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}

	return n / d
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}

	return v
}
