package ffprobe

import (
	"encoding/json"
	"testing"
)

const sampleOutput = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "h264",
      "codec_type": "video",
      "width": 1920,
      "height": 1080,
      "r_frame_rate": "30000/1001",
      "avg_frame_rate": "30000/1001",
      "nb_frames": "4315",
      "duration": "143.935"
    },
    {
      "index": 1,
      "codec_name": "aac",
      "codec_type": "audio"
    }
  ],
  "format": {
    "filename": "clip.mp4",
    "duration": "143.989",
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2"
  }
}`

func parseSample(t *testing.T) Result {
	t.Helper()
	var result Result
	if err := json.Unmarshal([]byte(sampleOutput), &result); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	return result
}

func TestVideoStreamSelection(t *testing.T) {
	result := parseSample(t)
	stream, ok := result.VideoStream()
	if !ok {
		t.Fatal("expected a video stream")
	}
	if stream.Width != 1920 || stream.Height != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", stream.Width, stream.Height)
	}
}

func TestFrameRateFraction(t *testing.T) {
	result := parseSample(t)
	stream, _ := result.VideoStream()
	fps := stream.FrameRate()
	if fps < 29.96 || fps > 29.98 {
		t.Errorf("FrameRate = %v, want ~29.97", fps)
	}
}

func TestFrameCountFromNBFrames(t *testing.T) {
	result := parseSample(t)
	stream, _ := result.VideoStream()
	if got := stream.FrameCount(result.DurationSeconds()); got != 4315 {
		t.Errorf("FrameCount = %d, want 4315", got)
	}
}

func TestFrameCountEstimatedFromDuration(t *testing.T) {
	stream := Stream{CodecType: "video", RFrameRate: "25/1"}
	if got := stream.FrameCount(10.0); got != 250 {
		t.Errorf("FrameCount = %d, want 250", got)
	}
}

func TestDurationSeconds(t *testing.T) {
	result := parseSample(t)
	if d := result.DurationSeconds(); d < 143.9 || d > 144.1 {
		t.Errorf("DurationSeconds = %v, want ~143.989", d)
	}
}

func TestFrameRateDegenerate(t *testing.T) {
	stream := Stream{RFrameRate: "0/0", AvgFrameRate: ""}
	if got := stream.FrameRate(); got != 0 {
		t.Errorf("FrameRate = %v, want 0", got)
	}
}
