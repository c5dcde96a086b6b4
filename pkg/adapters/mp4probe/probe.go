// Package mp4probe inspects MP4 containers and selects the video stream to play.
package mp4probe

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/youterm/pkg/ports"
)

var (
	// ErrNoVideoTrack is returned when the container has no video track.
	ErrNoVideoTrack = errors.New("mp4probe: no video track found")

	// ErrUnsupportedCodec is returned when the video track's sample entry is not decodable.
	ErrUnsupportedCodec = errors.New("mp4probe: unsupported codec")

	// ErrMalformed is returned when the container cannot be parsed.
	ErrMalformed = errors.New("mp4probe: malformed container")
)

// supportedCodecs lists sample entry types ffmpeg can decode into frames.
var supportedCodecs = map[string]bool{
	"avc1": true,
	"avc3": true,
	"hvc1": true,
	"hev1": true,
	"av01": true,
	"vp09": true,
	"mp4v": true,
}

// ProbeFile inspects the MP4 file at path.
func ProbeFile(path string) (ports.StreamInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.StreamInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Probe(f)
}

// Probe inspects an MP4 container and returns the first video track with a
// supported codec, which is the stream playback decodes. The reader is rewound before returning.
// Media data is not loaded.
func Probe(reader io.ReadSeeker) (ports.StreamInfo, error) {
	mp4File, err := mp4.DecodeFile(reader, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return ports.StreamInfo{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return ports.StreamInfo{}, fmt.Errorf("seek: %w", err)
	}

	return selectVideoTrack(mp4File)
}

func selectVideoTrack(mp4File *mp4.File) (ports.StreamInfo, error) {
	moov := mp4File.Moov
	if moov == nil && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	}
	if moov == nil {
		return ports.StreamInfo{}, ErrNoVideoTrack
	}

	var unsupported string
	videoIndex := 0
	for _, trak := range moov.Traks {
		info, ok := videoTrackInfo(trak)
		if !ok {
			continue
		}
		info.VideoIndex = videoIndex
		videoIndex++
		if !supportedCodecs[info.Codec] {
			if unsupported == "" {
				unsupported = info.Codec
			}
			continue
		}
		info.Fragmented = mp4File.IsFragmented()
		return info, nil
	}

	if unsupported != "" {
		return ports.StreamInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedCodec, unsupported)
	}
	return ports.StreamInfo{}, ErrNoVideoTrack
}

// videoTrackInfo describes trak when it is a video track.
func videoTrackInfo(trak *mp4.TrakBox) (ports.StreamInfo, bool) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
		return ports.StreamInfo{}, false
	}

	info := ports.StreamInfo{Codec: "unknown", Timescale: 1000}
	if trak.Tkhd != nil {
		info.TrackID = trak.Tkhd.TrackID
	}
	if trak.Mdia.Mdhd != nil {
		info.Timescale = trak.Mdia.Mdhd.Timescale
	}

	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return info, true
	}
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz != nil {
		info.SampleCount = int(stbl.Stsz.SampleNumber)
	}
	if stbl.Stsd == nil {
		return info, true
	}

	for _, child := range stbl.Stsd.Children {
		info.Codec = child.Type()
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			info.Width = int(vse.Width)
			info.Height = int(vse.Height)
		}
		break
	}
	return info, true
}
