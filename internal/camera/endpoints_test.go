package camera

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestNewEndpointSetDedupesAndSorts(t *testing.T) {
	s := NewEndpointSet("rtsp://b/2", " rtsp://a/1 ", "", "rtsp://b/2")
	if diff := cmp.Diff([]string{"rtsp://a/1", "rtsp://b/2"}, s.Slice()); diff != "" {
		t.Fatalf("unexpected members (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("rtsp://a/1"))
	assert.False(t, s.Contains("rtsp://c/3"))
}

func TestMergeIsUnionAndLeavesInputsAlone(t *testing.T) {
	seeds := NewEndpointSet("rtsp://cam/main")
	discovered := NewEndpointSet("rtsp://cam/sub", "rtsp://cam/main")

	merged := seeds.Merge(discovered)

	if diff := cmp.Diff([]string{"rtsp://cam/main", "rtsp://cam/sub"}, merged.Slice()); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"rtsp://cam/main"}, seeds.Slice())
	assert.Equal(t, 2, discovered.Len())
}

func TestSliceReturnsCopy(t *testing.T) {
	s := NewEndpointSet("rtsp://x/1")
	got := s.Slice()
	got[0] = "mutated"
	assert.Equal(t, []string{"rtsp://x/1"}, s.Slice())
}

func TestZeroValueIsEmpty(t *testing.T) {
	var s EndpointSet
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Slice())
	assert.False(t, s.Contains("rtsp://x"))
	assert.Equal(t, 1, s.Merge(NewEndpointSet("rtsp://x")).Len())
}

func TestManagementAddr(t *testing.T) {
	d := Device{IP: "10.0.0.5", Port: 8080}
	assert.Equal(t, "10.0.0.5:8080", d.ManagementAddr())
}
