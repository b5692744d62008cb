// Package callsession, kolab'ın native arama client çekirdeğidir.
//
// Bir arama oturumunun tüm yaşam döngüsünü yönetir: durum makinesi
// (Engine), peer bağlantısı (Peer), medya yakalama (Capturer), signaling
// relay adaptörü (Signaler) ve oturum özellik kontrolleri (mute, ekran
// paylaşımı, kayıt, kalite örnekleme).
//
// Paket, kolab backend'inden bağımsız çalışır — sunucuyla tek teması
// /ws relay endpoint'i ve models paketindeki wire tipleridir.
package callsession

import "errors"

// Arama yaşam döngüsü hata taksonomisi.
//
// Tüm hatalar lokal olarak toparlanır: Engine Idle durumuna döner ve
// edinilmiş medya/bağlantı kaynakları bırakılır. Hiçbiri uygulama için
// ölümcül değildir — arama özelliği baştan başlatılabilir. Retry
// politikası yok: başarısız arama kullanıcı tarafından tekrar denenir.
var (
	// ErrMediaUnavailable: kamera/mikrofon açılamadı (izin ya da donanım).
	ErrMediaUnavailable = errors.New("media unavailable")

	// ErrRelayUnavailable: signaling gönderimi/aboneliği başarısız.
	ErrRelayUnavailable = errors.New("relay unavailable")

	// ErrNegotiationFailed: remote description ya da answer üretimi başarısız.
	// Gelen arama kaydı atılır, yarım durum tutulmaz.
	ErrNegotiationFailed = errors.New("negotiation failed")

	// ErrTransportFailed: peer bağlantısı disconnected/failed bildirdi.
	// Otomatik end-call temizliği tetikler.
	ErrTransportFailed = errors.New("transport failed")

	// ErrCallInProgress: zaten aktif bir arama varken yeni arama başlatıldı.
	ErrCallInProgress = errors.New("another call is already in progress")

	// ErrNoIncomingCall: Ringing durumunda değilken answer/decline çağrıldı.
	ErrNoIncomingCall = errors.New("no incoming call")

	// ErrNoActiveCall: aktif oturum gerektiren bir kontrol boşta çağrıldı.
	ErrNoActiveCall = errors.New("no active call")
)
