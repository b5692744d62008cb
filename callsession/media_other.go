//go:build !linux || !cgo

package callsession

import (
	"fmt"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
)

// NewMediaStack, Linux dışı platformlarda yakalama yapamayan bir stack kurar.
//
// pion/mediadevices'ın kamera/mikrofon sürücüleri platforma özeldir
// (Linux'ta V4L2 + malgo); diğer platformlarda her yakalama denemesi
// ErrMediaUnavailable döner ve Engine aramayı başlatmadan Idle'a döner.
// PeerFactory yine de kurulur — gelen medyayı almak mümkün olsun diye
// varsayılan codec'lerle çalışır.
func NewMediaStack(stunURLs []string) (Capturer, PeerFactory, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, nil, err
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, registry); err != nil {
		return nil, nil, err
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(registry),
	)

	return &unsupportedCapturer{}, newPionPeerFactory(api, stunURLs), nil
}

type unsupportedCapturer struct{}

func (c *unsupportedCapturer) CaptureUserMedia() (LocalStream, error) {
	return nil, fmt.Errorf("%w: camera/microphone capture is only supported on linux", ErrMediaUnavailable)
}

func (c *unsupportedCapturer) CaptureDisplay() (LocalStream, error) {
	return nil, fmt.Errorf("%w: display capture is only supported on linux", ErrMediaUnavailable)
}
