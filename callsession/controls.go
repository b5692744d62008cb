package callsession

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/akinalp/kolab/models"
)

// controls.go — aktif oturumun üzerine katmanlanan bağımsız kontroller:
// mute, video toggle, ekran paylaşımı, hand-raise, chat, kayıt, süre.
// Her biri oturum yokken güvenle no-op'tur ya da ErrNoActiveCall döner.

// ToggleMute, giden sesi keser/açar ve yeni muted durumunu döner.
// Track durdurulmaz/bırakılmaz — sadece RTP gönderimi kesilir.
func (e *Engine) ToggleMute() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.peer == nil || e.local == nil {
		return false, ErrNoActiveCall
	}
	e.muted = !e.muted
	e.peer.SetAudioEnabled(!e.muted)
	log.Printf("[controls] muted=%v", e.muted)
	return e.muted, nil
}

// ToggleVideo, giden videoyu gizler/gösterir ve yeni disabled durumunu döner.
// Kamera stream'i açık kalır — tekrar açmada yeniden edinme gecikmesi olmaz.
func (e *Engine) ToggleVideo() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.peer == nil || e.local == nil {
		return false, ErrNoActiveCall
	}
	e.videoDisabled = !e.videoDisabled
	e.peer.SetVideoEnabled(!e.videoDisabled)
	log.Printf("[controls] video disabled=%v", e.videoDisabled)
	return e.videoDisabled, nil
}

// StartScreenShare, ekran yakalar ve giden video track'ini renegotiation
// olmadan değiştirir. Kullanıcı paylaşımı platformun kendi UI'ından
// durdurursa track OnEnded tetiklenir ve kamera otomatik geri gelir —
// polling yok, callback var.
func (e *Engine) StartScreenShare() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.peer == nil {
		return ErrNoActiveCall
	}
	if e.screenSharing {
		return nil
	}

	screen, err := e.capturer.CaptureDisplay()
	if err != nil {
		return err
	}
	vt := screen.VideoTrack()
	if vt == nil {
		screen.Close()
		return fmt.Errorf("%w: display stream has no video track", ErrMediaUnavailable)
	}

	if err := e.peer.ReplaceOutgoingVideoTrack(vt); err != nil {
		screen.Close()
		return err
	}

	vt.OnEnded(func(error) {
		e.enqueue(event{kind: evScreenEnded})
	})

	e.screen = screen
	e.screenSharing = true
	log.Printf("[controls] screen share started")
	return nil
}

// StopScreenShare, paylaşımı lokal olarak durdurur ve kamerayı geri koyar.
func (e *Engine) StopScreenShare() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.screenSharing {
		return nil
	}
	e.restoreCameraLocked()
	return nil
}

// restoreCameraLocked, giden video sender'ına kamera track'ini geri koyar
// ve ekran stream'ini kapatır. Kamera stream'i paylaşım boyunca açık
// kaldığı için yeniden edinme gerekmez.
func (e *Engine) restoreCameraLocked() {
	if !e.screenSharing {
		return
	}
	e.screenSharing = false

	if e.peer != nil && e.local != nil {
		if cam := e.local.VideoTrack(); cam != nil {
			if err := e.peer.ReplaceOutgoingVideoTrack(cam); err != nil {
				log.Printf("[controls] camera restore failed: %v", err)
			}
		}
	}
	if e.screen != nil {
		e.screen.Close()
		e.screen = nil
	}
	log.Printf("[controls] screen share stopped, camera restored")
}

// ToggleHandRaise, el kaldırma durumunu çevirir ve karşı tarafa bildirir.
func (e *Engine) ToggleHandRaise() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.call == nil {
		return false, ErrNoActiveCall
	}
	e.handRaised = !e.handRaised
	err := e.sig.SendTo(e.call.PeerID, models.SignalHandRaise, models.HandRaisePayload{
		FromUserID: e.cfg.SelfID,
		IsRaised:   e.handRaised,
	})
	if err != nil {
		return e.handRaised, err
	}
	return e.handRaised, nil
}

// SendChat, arama içi chat mesajı gönderir. Mesajlar kalıcı değildir —
// sadece relay üzerinden karşı tarafa iletilir.
func (e *Engine) SendChat(message string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.call == nil {
		return ErrNoActiveCall
	}
	return e.sig.SendTo(e.call.PeerID, models.SignalCallChat, models.ChatPayload{
		FromUserID: e.cfg.SelfID,
		Sender:     e.cfg.SelfName,
		Message:    message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

// StartRecording, aramayı path'teki tek bir .webm dosyasına kaydetmeye
// başlar. Kayıt, başlangıç anındaki track kümesini görür: sonradan
// yapılan track değişimi (ekran paylaşımı) dosyaya yansımaz. Kayıt
// durumu lokaldir, karşı tarafa sinyallenmez.
func (e *Engine) StartRecording(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.peer == nil {
		return ErrNoActiveCall
	}
	if e.recorder != nil {
		return fmt.Errorf("recording already in progress")
	}

	// Lokal video ancak stream encode edilmiş kaynak sunabiliyorsa
	// kaydedilir (Linux'ta mediadevices EncodedReader).
	var localSrc EncodedVideoSource
	if provider, ok := e.local.(EncodedSourceProvider); ok {
		src, err := provider.EncodedVideo()
		if err != nil {
			log.Printf("[controls] local video not recordable: %v", err)
		} else {
			localSrc = src
		}
	}

	rec, err := NewRecorder(path, localSrc != nil)
	if err != nil {
		if localSrc != nil {
			_ = localSrc.Close()
		}
		return err
	}
	if err := rec.Start(localSrc); err != nil {
		_ = rec.Stop()
		return err
	}

	e.peer.SetRemoteSink(rec)
	e.recorder = rec
	log.Printf("[controls] recording to %s", path)
	return nil
}

// StopRecording, kaydı bitirir ve dosyayı kapatır.
func (e *Engine) StopRecording() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recorder == nil {
		return nil
	}
	if e.peer != nil {
		e.peer.SetRemoteSink(nil)
	}
	err := e.recorder.Stop()
	e.recorder = nil
	log.Printf("[controls] recording stopped")
	return err
}

// IsMuted / IsVideoDisabled / IsScreenSharing / IsHandRaised — anlık bayraklar.
func (e *Engine) IsMuted() bool         { return e.flag(&e.muted) }
func (e *Engine) IsVideoDisabled() bool { return e.flag(&e.videoDisabled) }
func (e *Engine) IsScreenSharing() bool { return e.flag(&e.screenSharing) }
func (e *Engine) IsHandRaised() bool    { return e.flag(&e.handRaised) }

func (e *Engine) flag(b *bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *b
}

// Duration, bağlantının başlamasından bu yana geçen süreyi döner.
func (e *Engine) Duration() time.Duration {
	return time.Duration(e.duration.Seconds()) * time.Second
}

// CurrentQuality, son ölçülen kalite bandını döner; örnekleyici yoksa boş.
func (e *Engine) CurrentQuality() Quality {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sampler == nil {
		return ""
	}
	return e.sampler.Current()
}

// ─── Süre sayacı ───

// durationTimer, bağlantı kurulduğunda başlayan saniyelik sayaçtır.
// Tamamen sunumsaldır — kalıcılığı yoktur, arama sonunda sıfırlanır.
type durationTimer struct {
	mu      sync.Mutex
	seconds int
	running bool
	stop    chan struct{}
}

func newDurationTimer() *durationTimer {
	return &durationTimer{}
}

func (d *durationTimer) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.seconds = 0
	d.stop = make(chan struct{})

	go func(stop chan struct{}) {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				d.mu.Lock()
				d.seconds++
				d.mu.Unlock()
			}
		}
	}(d.stop)
}

func (d *durationTimer) Seconds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seconds
}

func (d *durationTimer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		close(d.stop)
		d.running = false
	}
	d.seconds = 0
}
