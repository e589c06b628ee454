package redis

import "testing"

func TestMsgLenBucket(t *testing.T) {
	tests := []struct {
		length   int
		expected string
	}{
		{0, "0"},
		{1, "5"},
		{10, "5"},
		{11, "30"},
		{50, "30"},
		{51, "75"},
		{100, "75"},
		{101, "150"},
		{200, "150"},
		{201, "250"},
		{4000, "250"},
	}

	for _, tt := range tests {
		if got := MsgLenBucket(tt.length); got != tt.expected {
			t.Errorf("MsgLenBucket(%d) = %v, want %v", tt.length, got, tt.expected)
		}
	}
}

func TestMsgLenBucketLabelsCoverAllBuckets(t *testing.T) {
	seen := make(map[string]bool)
	for _, b := range MsgLenBucketLabels {
		seen[b.Key] = true
	}
	for _, key := range []string{"0", "5", "30", "75", "150", "250"} {
		if !seen[key] {
			t.Errorf("bucket %q has no label", key)
		}
	}
}
