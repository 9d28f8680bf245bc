package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
)

// FFmpeg decodes a video file through an ffmpeg rawvideo pipe.
//
// The process is started lazily on the first read and restarted whenever
// [FFmpeg.Seek] moves away from the next sequential frame.
//
// Create instances with [OpenFFmpeg].
type FFmpeg struct {
	ctx    context.Context
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	cancel context.CancelFunc
	logger *slog.Logger
	binary string
	path   string
	info   Info
	// pos is the index of the frame the next ReadFrame returns.
	pos int
}

// OpenFFmpeg probes path and returns a source positioned at frame 0. The
// context bounds the lifetime of every ffmpeg process the source starts.
func OpenFFmpeg(ctx context.Context, path string, opts ...Option) (*FFmpeg, error) {
	o := newOptions(opts)

	_, err := exec.LookPath(o.ffmpeg)
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found in PATH: install ffmpeg or use a directory of PNG frames instead",
			ErrSourceUnavailable)
	}

	info, err := Probe(ctx, path, opts...)
	if err != nil {
		return nil, err
	}

	return &FFmpeg{
		ctx:    ctx,
		logger: o.logger,
		binary: o.ffmpeg,
		path:   path,
		info:   info,
	}, nil
}

// Info implements [Source].
func (f *FFmpeg) Info() Info { return f.info }

// Seek implements [Source].
func (f *FFmpeg) Seek(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: seek to frame %d", ErrSourceUnavailable, index)
	}

	if index == f.pos {
		return nil
	}

	// Short forward jumps are cheaper to decode through than to restart.
	if f.cmd != nil && index > f.pos && index-f.pos <= f.maxSkip() {
		skip := int64(index-f.pos) * int64(f.info.Width*f.info.Height)

		_, err := io.CopyN(io.Discard, f.stdout, skip)
		if err == nil {
			f.pos = index

			return nil
		}
	}

	f.stop()
	f.pos = index

	return nil
}

// maxSkip is the largest forward seek served by discarding frames: about two
// seconds of video.
func (f *FFmpeg) maxSkip() int {
	return max(1, int(2*f.info.FPS))
}

// ReadFrame implements [Source].
func (f *FFmpeg) ReadFrame() (*image.Gray, error) {
	if f.info.FrameCount > 0 && f.pos >= f.info.FrameCount {
		return nil, ErrEndOfStream
	}

	if f.cmd == nil {
		err := f.start()
		if err != nil {
			return nil, err
		}
	}

	w, h := f.info.Width, f.info.Height
	buf := make([]byte, w*h)

	_, err := io.ReadFull(f.stdout, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		// ffmpeg closed its output: either the stream ended or decoding failed.
		waitErr := f.finish()
		if waitErr != nil {
			return nil, fmt.Errorf("%w: decoding frame %d: %w: %s",
				ErrSourceUnavailable, f.pos, waitErr, f.stderr.String())
		}

		return nil, ErrEndOfStream
	}

	if err != nil {
		f.stop()

		return nil, fmt.Errorf("%w: reading frame %d: %w: %s", ErrSourceUnavailable, f.pos, err, f.stderr.String())
	}

	f.pos++

	return &image.Gray{
		Pix:    buf,
		Stride: w,
		Rect:   image.Rect(0, 0, w, h),
	}, nil
}

// Close implements [Source].
func (f *FFmpeg) Close() error {
	f.stop()

	return nil
}

// start launches ffmpeg at the current position.
func (f *FFmpeg) start() error {
	ctx, cancel := context.WithCancel(f.ctx)

	args := []string{"-v", "error", "-nostdin"}
	if f.pos > 0 {
		ts := float64(f.pos) / f.info.FPS
		args = append(args, "-ss", strconv.FormatFloat(ts, 'f', 6, 64))
	}

	args = append(args,
		"-i", f.path,
		"-an", "-sn",
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"pipe:1",
	)

	//nolint:gosec // The binary and path are caller-provided, not untrusted input.
	cmd := exec.CommandContext(ctx, f.binary, args...)

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()

		return fmt.Errorf("%w: creating stdout pipe: %w", ErrSourceUnavailable, err)
	}

	err = cmd.Start()
	if err != nil {
		cancel()

		return fmt.Errorf("%w: starting ffmpeg: %w", ErrSourceUnavailable, err)
	}

	f.logger.Debug("video: started decoder",
		slog.String("path", f.path),
		slog.Int("frame", f.pos),
	)

	f.cmd = cmd
	f.stdout = stdout
	f.stderr = stderr
	f.cancel = cancel

	return nil
}

// stop cancels the running ffmpeg process, if any, and waits for it to exit.
func (f *FFmpeg) stop() {
	if f.cmd == nil {
		return
	}

	f.cancel()
	//nolint:errcheck // Error is expected after context cancellation.
	f.cmd.Wait()

	f.reset()
}

// finish waits for an ffmpeg process that closed its output and returns its
// exit error.
func (f *FFmpeg) finish() error {
	err := f.cmd.Wait()
	f.cancel()
	f.reset()

	return err
}

func (f *FFmpeg) reset() {
	f.cmd = nil
	f.stdout = nil
	f.cancel = nil
}
