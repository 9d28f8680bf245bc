// Command asscii converts video to ASCII art.
//
// It previews the conversion in the terminal, edits per-frame erase masks,
// and exports the result as an ASS subtitle track, plain text or a PNG
// snapshot. The input is either a video file (decoded with ffmpeg) or a
// directory of PNG frames.
//
// # Usage
//
//	asscii [flags] <command> <video_file|frame_directory>
//
// # Commands
//
//	play      preview in the terminal and edit masks
//	export    write an ASS subtitle track
//	text      write one frame as plain text
//	render    write one frame as a PNG image
//	erase     edit the erase mask of a frame
//	info      show video metadata
//	charsets  list the built-in charsets
//	config    show the effective configuration, its schema or its path
//	version   show build information
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}

// run executes the command line args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	stopErr := a.stopProfiler()
	if stopErr != nil {
		fmt.Fprintf(stderr, "Error: stopping profiler: %v\n", stopErr)
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)

		return 1
	}

	if stopErr != nil {
		return 1
	}

	return 0
}
