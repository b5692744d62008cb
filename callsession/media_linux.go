//go:build linux && cgo

package callsession

import (
	"fmt"
	"log"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	_ "github.com/pion/mediadevices/pkg/driver/screen"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pion/webrtc/v4"
)

// NewMediaStack, Linux'ta gerçek medya yakalama + peer bağlantı altyapısını
// kurar. Capturer ve PeerFactory aynı codec selector'ı paylaşmak zorundadır:
// mediadevices'ın VP8/Opus encoder'ları PeerConnection'ın MediaEngine'ine
// Populate ile kaydedilmezse AddTrack codec uyuşmazlığıyla başarısız olur.
func NewMediaStack(stunURLs []string) (Capturer, PeerFactory, error) {
	vpxParams, err := vpx.NewVP8Params()
	if err != nil {
		return nil, nil, err
	}
	vpxParams.BitRate = 1_500_000 // 1.5 Mbps

	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, nil, err
	}

	selector := mediadevices.NewCodecSelector(
		mediadevices.WithVideoEncoders(&vpxParams),
		mediadevices.WithAudioEncoders(&opusParams),
	)

	mediaEngine := &webrtc.MediaEngine{}
	selector.Populate(mediaEngine)

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, registry); err != nil {
		return nil, nil, err
	}

	// Varsayılan disconnectedTimeout (5sn) relay yolundaki kısa kesintiler
	// için fazla agresif — ICE'a toparlanma payı bırakıyoruz.
	se := webrtc.SettingEngine{}
	se.SetICETimeouts(30*time.Second, 120*time.Second, 2*time.Second)

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(registry),
		webrtc.WithSettingEngine(se),
	)

	return &deviceCapturer{selector: selector}, newPionPeerFactory(api, stunURLs), nil
}

// deviceCapturer, pion/mediadevices üzerinden kamera/mikrofon/ekran yakalar.
type deviceCapturer struct {
	selector *mediadevices.CodecSelector
}

// CaptureUserMedia, kamera+mikrofon yakalar.
//
// GetUserMedia, track'lerden biri (video VEYA audio) açılamazsa bütün
// olarak başarısız olur. Önce video+audio, sonra video-only, sonra
// audio-only denenir — meşgul bir mikrofon kamerayı engellemesin diye.
func (c *deviceCapturer) CaptureUserMedia() (LocalStream, error) {
	attempts := []struct {
		video bool
		audio bool
		label string
	}{
		{true, true, "video+audio"},
		{true, false, "video-only"},
		{false, true, "audio-only"},
	}

	var lastErr error
	for _, a := range attempts {
		constraints := mediadevices.MediaStreamConstraints{Codec: c.selector}
		if a.video {
			constraints.Video = func(mc *mediadevices.MediaTrackConstraints) {
				// MJPEG hariç — bazı kameraların MJPEG V4L2 node'u bozuk
				// JPEG frame üretir ve VP8 encoder'ı zehirler. Sadece raw
				// formatlar.
				mc.FrameFormat = prop.FrameFormatOneOf{
					frame.FormatYUYV,
					frame.FormatI420,
					frame.FormatI444,
					frame.FormatRGBA,
				}
				// 640×480 üstü çözünürlük VP8 encode gecikmesini artırır.
				mc.Width = prop.IntRanged{Max: 640}
				mc.Height = prop.IntRanged{Max: 480}
			}
		}
		if a.audio {
			constraints.Audio = func(_ *mediadevices.MediaTrackConstraints) {}
		}

		stream, err := mediadevices.GetUserMedia(constraints)
		if err != nil {
			log.Printf("[media] GetUserMedia (%s) failed: %v", a.label, err)
			lastErr = err
			continue
		}

		log.Printf("[media] local media captured (%s) — %d tracks", a.label, len(stream.GetTracks()))
		return newDeviceStream(stream), nil
	}

	return nil, fmt.Errorf("%w: %v", ErrMediaUnavailable, lastErr)
}

// CaptureDisplay, ekran görüntüsü yakalar (screen driver, X11).
func (c *deviceCapturer) CaptureDisplay() (LocalStream, error) {
	stream, err := mediadevices.GetDisplayMedia(mediadevices.MediaStreamConstraints{
		Codec: c.selector,
		Video: func(mc *mediadevices.MediaTrackConstraints) {},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: display capture: %v", ErrMediaUnavailable, err)
	}
	return newDeviceStream(stream), nil
}

// deviceStream, mediadevices.MediaStream'i LocalStream'e adapte eder.
type deviceStream struct {
	tracks []mediadevices.Track
}

func newDeviceStream(s mediadevices.MediaStream) *deviceStream {
	return &deviceStream{tracks: s.GetTracks()}
}

func (s *deviceStream) Tracks() []Track {
	out := make([]Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		out = append(out, t)
	}
	return out
}

func (s *deviceStream) VideoTrack() Track { return s.trackOfKind(webrtc.RTPCodecTypeVideo) }
func (s *deviceStream) AudioTrack() Track { return s.trackOfKind(webrtc.RTPCodecTypeAudio) }

func (s *deviceStream) trackOfKind(kind webrtc.RTPCodecType) Track {
	for _, t := range s.tracks {
		if t.Kind() == kind {
			return t
		}
	}
	return nil
}

func (s *deviceStream) Close() {
	for _, t := range s.tracks {
		_ = t.Close()
	}
}

// EncodedVideo, kayıt için lokal video track'inden bağımsız bir VP8
// okuyucu açar. mediadevices raw frame'leri birden fazla tüketiciye
// broadcast eder — bu encoder, Pion'un RTP için kullandığına paralel çalışır.
func (s *deviceStream) EncodedVideo() (EncodedVideoSource, error) {
	for _, t := range s.tracks {
		if t.Kind() != webrtc.RTPCodecTypeVideo {
			continue
		}
		r, err := t.NewEncodedReader(webrtc.MimeTypeVP8)
		if err != nil {
			return nil, err
		}
		return &vp8Source{r: r}, nil
	}
	return nil, fmt.Errorf("no local video track")
}

// vp8Source, mediadevices EncodedReadCloser'ı EncodedVideoSource'a sarar.
type vp8Source struct{ r mediadevices.EncodedReadCloser }

func (s *vp8Source) ReadFrame() ([]byte, bool, error) {
	buf, release, err := s.r.Read()
	if err != nil {
		return nil, false, err
	}
	data := make([]byte, len(buf.Data))
	copy(data, buf.Data)
	release()
	return data, vp8Keyframe(data), nil
}

func (s *vp8Source) Close() error { return s.r.Close() }
