package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/xason0/ultraxas-go/internal/utils"
)

// NativeResolver extracts stream URLs directly from the platform player
// response instead of going through a converter service. Last in every chain:
// it needs no third party but breaks whenever the player API shifts.
type NativeResolver struct {
	client *youtube.Client
}

func NewNative() *NativeResolver {
	return &NativeResolver{
		client: &youtube.Client{},
	}
}

func (r *NativeResolver) Name() string {
	return "native"
}

func (r *NativeResolver) Supports(kind MediaKind) bool {
	return true
}

func (r *NativeResolver) Resolve(ctx context.Context, req ResolutionRequest) (*ResolutionResult, error) {
	video, err := r.client.GetVideoContext(ctx, req.VideoID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "unavailable") {
			return nil, NewVideoNotFoundError(r.Name(), req.VideoID)
		}
		return nil, NewUpstreamError(r.Name(), err)
	}

	var format *youtube.Format
	if req.Kind == MediaKindAudio {
		format = pickAudioFormat(video.Formats)
	} else {
		format = pickVideoFormat(video.Formats, req.Quality)
	}
	if format == nil {
		return nil, NewNoURLError(r.Name(), "no playable format in player response")
	}

	streamURL, err := r.client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewUpstreamError(r.Name(), err)
	}

	mimeType := format.MimeType
	if idx := strings.Index(mimeType, ";"); idx > 0 {
		mimeType = mimeType[:idx]
	}
	if mimeType == "" {
		mimeType = MimeTypeFor(req.Kind)
	}

	utils.LogDebug(ctx, "Native stream URL extracted", utils.Fields{
		"video_id": req.VideoID,
		"itag":     format.ItagNo,
		"quality":  format.QualityLabel,
	})

	result := NewDirectURL(req.Kind, streamURL, mimeType, video.Title)
	result.Quality = format.QualityLabel
	result.Title = video.Title
	return result, nil
}

// pickAudioFormat takes the highest-bitrate audio-only stream.
func pickAudioFormat(formats youtube.FormatList) *youtube.Format {
	audio := formats.Type("audio")
	if len(audio) == 0 {
		return nil
	}
	sort.SliceStable(audio, func(i, j int) bool {
		return audio[i].Bitrate > audio[j].Bitrate
	})
	return &audio[0]
}

// pickVideoFormat prefers progressive mp4 streams that carry their own audio
// track, at or below the requested quality, falling back to the best
// progressive stream available.
func pickVideoFormat(formats youtube.FormatList, quality string) *youtube.Format {
	progressive := make([]youtube.Format, 0, len(formats))
	for _, f := range formats.Type("video/mp4") {
		if f.AudioChannels > 0 {
			progressive = append(progressive, f)
		}
	}
	if len(progressive) == 0 {
		return nil
	}

	sort.SliceStable(progressive, func(i, j int) bool {
		return progressive[i].Height > progressive[j].Height
	})

	maxHeight := 480
	switch quality {
	case "1080p":
		maxHeight = 1080
	case "720p":
		maxHeight = 720
	}

	for i := range progressive {
		if progressive[i].Height <= maxHeight {
			return &progressive[i]
		}
	}
	return &progressive[len(progressive)-1]
}

var _ Resolver = (*NativeResolver)(nil)
