package vector

import (
	"testing"

	"github.com/desertthunder/tracklink/internal/models"
)

func TestPointIDStable(t *testing.T) {
	a := PointID(models.PlatformSpotify, "track123")
	b := PointID(models.PlatformSpotify, "track123")
	if a != b {
		t.Errorf("same inputs produced different ids: %s vs %s", a, b)
	}
}

func TestPointIDDistinct(t *testing.T) {
	tc := []struct {
		name string
		a, b string
	}{
		{
			name: "different tracks",
			a:    PointID(models.PlatformSpotify, "track1"),
			b:    PointID(models.PlatformSpotify, "track2"),
		},
		{
			name: "different platforms",
			a:    PointID(models.PlatformSpotify, "track1"),
			b:    PointID(models.PlatformYouTube, "track1"),
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if tt.a == tt.b {
				t.Errorf("expected distinct ids, both %s", tt.a)
			}
		})
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	p := Payload{
		Platform:   models.PlatformYouTube,
		TrackID:    "vid123",
		Title:      "Hey Jude",
		Artist:     "The Beatles",
		Album:      "Past Masters",
		Normalized: "hey jude - the beatles past masters",
	}

	got := payloadFromMap(payloadMap(p))
	if got != p {
		t.Errorf("payload round trip changed value:\ngot  %+v\nwant %+v", got, p)
	}
}

func TestPayloadFromMapMissingKeys(t *testing.T) {
	got := payloadFromMap(nil)
	if got != (Payload{}) {
		t.Errorf("expected zero payload, got %+v", got)
	}
}
