package callsession

import "github.com/pion/webrtc/v4"

// Track, Engine'in lokal bir medya track'inden beklediği asgari yüzeydir.
//
// mediadevices.Track bu interface'i olduğu gibi karşılar — gerçek
// implementasyon için adaptör gerekmez. Testler ise donanım olmadan
// sahte track üretebilir.
type Track interface {
	// Kind: track'in video mu audio mu olduğu.
	Kind() webrtc.RTPCodecType

	// OnEnded: track kapandığında (kamera çekildi, ekran paylaşımı
	// platform UI'ından durduruldu) çağrılacak callback.
	OnEnded(func(error))

	// Close, yakalamayı durdurur ve cihazı serbest bırakır.
	Close() error
}

// LocalStream, tek bir yakalama işleminin (kamera+mikrofon ya da ekran)
// ürettiği track kümesidir. Oturum süresince session'a aittir; toggle-off
// ya da arama sonunda bırakılır.
type LocalStream interface {
	Tracks() []Track

	// VideoTrack, ilk video track'ini döner; yoksa nil.
	VideoTrack() Track

	// AudioTrack, ilk audio track'ini döner; yoksa nil.
	AudioTrack() Track

	// Close, tüm track'leri kapatır. Idempotent.
	Close()
}

// Capturer, medya yakalama API'sinin soyutlamasıdır.
//
// Gerçek implementasyon pion/mediadevices kullanır ve platform build
// tag'lerinin arkasındadır (Linux'ta V4L2 + malgo sürücüleri).
// Başarısızlık ErrMediaUnavailable'a map edilir.
type Capturer interface {
	// CaptureUserMedia, kamera+mikrofon yakalar. Cihazlardan biri
	// açılamazsa kademeli düşer: video+audio → video → audio.
	CaptureUserMedia() (LocalStream, error)

	// CaptureDisplay, ekran görüntüsü yakalar (screen share).
	CaptureDisplay() (LocalStream, error)
}

// EncodedVideoSource, lokal kameranın encode edilmiş VP8 frame'lerini
// okur — kayıt sırasında lokal video track'ini beslemek için.
// ReadFrame bir sonraki frame hazır olana kadar bloklar.
type EncodedVideoSource interface {
	// ReadFrame bir VP8 frame'i döner. keyframe, frame'in bağımsız
	// decode edilebilir olduğunu belirtir.
	ReadFrame() (data []byte, keyframe bool, err error)
	Close() error
}

// EncodedSourceProvider, bir LocalStream'in kayıt için encode edilmiş
// video kaynağı sunabildiğini belirtir. mediadevices tabanlı stream'ler
// bunu NewEncodedReader üzerinden sağlar; sahte stream'ler sağlamayabilir.
type EncodedSourceProvider interface {
	EncodedVideo() (EncodedVideoSource, error)
}

// vp8Keyframe, bir VP8 frame'inin keyframe olup olmadığını header'dan okur.
// Frame tag'inin ilk byte'ındaki P biti: 0 = keyframe, 1 = delta frame.
func vp8Keyframe(data []byte) bool {
	return len(data) > 0 && data[0]&0x01 == 0
}
