package video

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbe(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		want  Info
		err   bool
	}{
		"nb_frames": {
			input: `{"streams":[{"codec_type":"video","width":640,"height":360,` +
				`"avg_frame_rate":"30000/1001","r_frame_rate":"30000/1001",` +
				`"nb_frames":"300","duration":"10.010000"}],"format":{"duration":"10.05"}}`,
			want: Info{
				Width: 640, Height: 360, FPS: 30000.0 / 1001, FrameCount: 300,
				Duration: 10010 * time.Millisecond,
			},
		},
		"estimated count": {
			input: `{"streams":[{"codec_type":"audio"},{"codec_type":"video","width":320,"height":240,` +
				`"avg_frame_rate":"0/0","r_frame_rate":"25/1"}],"format":{"duration":"2.0"}}`,
			want: Info{
				Width: 320, Height: 240, FPS: 25, FrameCount: 50,
				Duration: 2 * time.Second,
			},
		},
		"no video stream": {
			input: `{"streams":[{"codec_type":"audio"}],"format":{}}`,
			err:   true,
		},
		"zero size": {
			input: `{"streams":[{"codec_type":"video","avg_frame_rate":"24/1"}]}`,
			err:   true,
		},
		"malformed": {
			input: `{"streams":`,
			err:   true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := parseProbe([]byte(tc.input))
			if tc.err {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want.Width, got.Width)
			assert.Equal(t, tc.want.Height, got.Height)
			assert.InDelta(t, tc.want.FPS, got.FPS, 1e-9)
			assert.Equal(t, tc.want.FrameCount, got.FrameCount)
			assert.InDelta(t, tc.want.Duration.Seconds(), got.Duration.Seconds(), 1e-6)
		})
	}
}

func TestParseRate(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 29.97, parseRate("30000/1001"), 1e-3)
	assert.InDelta(t, 24.0, parseRate("24"), 1e-9)
	assert.Zero(t, parseRate("0/0"))
	assert.Zero(t, parseRate("x/1"))
	assert.Zero(t, parseRate(""))
}
