package ffprobe

import "testing"

func TestFirstAudioStreamSkipsNonAudio(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{Index: 0, CodecType: "data"},
			{Index: 1, CodecType: "audio", SampleRate: "44100", Channels: 6},
			{Index: 2, CodecType: "audio", SampleRate: "48000", Channels: 2},
		},
	}

	stream, ok := result.FirstAudioStream()
	if !ok {
		t.Fatal("expected an audio stream")
	}
	if stream.Index != 1 {
		t.Fatalf("expected stream index 1, got %d", stream.Index)
	}
	if stream.SampleRateHz() != 44100 {
		t.Fatalf("expected 44100 Hz, got %d", stream.SampleRateHz())
	}
	if got := result.AudioStreamCount(); got != 2 {
		t.Fatalf("expected 2 audio streams, got %d", got)
	}
}

func TestFirstAudioStreamMissing(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "video"}}}
	if _, ok := result.FirstAudioStream(); ok {
		t.Fatal("expected no audio stream")
	}
}

func TestDurationSeconds(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"123.45", 123.45},
		{"", 0},
		{"bad", 0},
		{"-4", 0},
	}
	for _, tc := range cases {
		result := Result{Format: Format{Duration: tc.raw}}
		if got := result.DurationSeconds(); got != tc.want {
			t.Errorf("DurationSeconds(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestSampleRateHz(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"48000", 48000},
		{" 44100 ", 44100},
		{"", 0},
		{"fast", 0},
		{"-48000", 0},
	}
	for _, tc := range cases {
		stream := Stream{SampleRate: tc.raw}
		if got := stream.SampleRateHz(); got != tc.want {
			t.Errorf("SampleRateHz(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}
