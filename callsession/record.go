package callsession

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"os"
	"sync"
)

// record.go — saf Go EBML encoding ile tek dosyalık WebM kaydı.
//
// Recorder, kayıt başladığı andaki track kümesini (lokal VP8 + karşı
// taraf VP8 + karşı taraf Opus) tek bir .webm dosyasına mux'lar.
// Track listesi başlangıçta sabitlenir: kayıt sırasında track değişimi
// (ekran paylaşımına geçiş) dosyaya yansımaz — bilinen sınırlama,
// sessizce düzeltilmez.

// ─── EBML encoding yardımcıları ───

// ebmlVint, v'yi element boyutları için EBML variable-length integer
// olarak encode eder. 4 byte'a kadar — makul her WebM elementi için yeter.
func ebmlVint(v uint64) []byte {
	switch {
	case v < 0x7F:
		return []byte{byte(0x80 | v)}
	case v < 0x3FFF:
		return []byte{byte(0x40 | (v >> 8)), byte(v)}
	case v < 0x1FFFFF:
		return []byte{byte(0x20 | (v >> 16)), byte(v >> 8), byte(v)}
	default:
		return []byte{byte(0x10 | (v >> 24)), byte(v >> 16), byte(v >> 8), byte(v)}
	}
}

// ebmlUnkSize: Segment gibi boyutu yazım anında bilinmeyen elementler
// için 8 byte'lık unknown-size işareti.
var ebmlUnkSize = []byte{0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// ebmlElem: id + vint(len(data)) + data.
func ebmlElem(id, data []byte) []byte {
	b := make([]byte, 0, len(id)+8+len(data))
	b = append(b, id...)
	b = append(b, ebmlVint(uint64(len(data)))...)
	return append(b, data...)
}

// ebmlUint, unsigned integer'ı minimum sayıda big-endian byte ile encode eder.
func ebmlUint(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	n := 0
	for x := v; x > 0; x >>= 8 {
		n++
	}
	b := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func ebmlConcat(slices ...[]byte) []byte {
	n := 0
	for _, s := range slices {
		n += len(s)
	}
	b := make([]byte, 0, n)
	for _, s := range slices {
		b = append(b, s...)
	}
	return b
}

// ─── Element ID'leri ───

var (
	idEBML         = []byte{0x1A, 0x45, 0xDF, 0xA3}
	idEBMLVersion  = []byte{0x42, 0x86}
	idEBMLReadVer  = []byte{0x42, 0xF7}
	idEBMLMaxIDLen = []byte{0x42, 0xF2}
	idEBMLMaxSzLen = []byte{0x42, 0xF3}
	idDocType      = []byte{0x42, 0x82}
	idDocTypeVer   = []byte{0x42, 0x87}
	idDocTypeRdVer = []byte{0x42, 0x85}
	idSegment      = []byte{0x18, 0x53, 0x80, 0x67}
	idInfo         = []byte{0x15, 0x49, 0xA9, 0x66}
	idTcScale      = []byte{0x2A, 0xD7, 0xB1}
	idMuxApp       = []byte{0x4D, 0x80}
	idWrtApp       = []byte{0x57, 0x41}
	idTracks       = []byte{0x16, 0x54, 0xAE, 0x6B}
	idTrackEntry   = []byte{0xAE}
	idTrackNum     = []byte{0xD7}
	idTrackUID     = []byte{0x73, 0xC5}
	idTrackType    = []byte{0x83}
	idTrackName    = []byte{0x53, 0x6E}
	idCodecID      = []byte{0x86}
	idCodecPrv     = []byte{0x63, 0xA2}
	idVideo        = []byte{0xE0}
	idPixelW       = []byte{0xB0}
	idPixelH       = []byte{0xBA}
	idAudio        = []byte{0xE1}
	idSampFreq     = []byte{0xB5}
	idChannels     = []byte{0x9F}
	idCluster      = []byte{0x1F, 0x43, 0xB6, 0x75}
	idTimecode     = []byte{0xE7}
	idSimpleBlock  = []byte{0xA3}
)

// opusHead: mono 48 kHz Opus için codec private data (OpusHead).
// WebM'de Opus track'leri için zorunlu.
var opusHead = []byte{
	'O', 'p', 'u', 's', 'H', 'e', 'a', 'd',
	0x01,                   // version
	0x01,                   // channels = 1
	0x38, 0x01,             // pre-skip = 312 (LE)
	0x80, 0xBB, 0x00, 0x00, // input sample rate = 48000 (LE)
	0x00, 0x00, // output gain
	0x00, // channel mapping family
}

// ─── Track tanımları ───

type recorderTrackKind int

const (
	recTrackVP8 recorderTrackKind = iota
	recTrackOpus
)

// recorderTrack, init segment'te ilan edilen bir track.
// Kayıt başladıktan sonra liste değişmez.
type recorderTrack struct {
	num    uint64
	kind   recorderTrackKind
	name   string
	width  uint16 // VP8: ilk keyframe'den; bilinmiyorsa 640x480
	height uint16
}

// webmSimpleBlock, tek bir SimpleBlock elementi encode eder.
// relMs, cluster başlangıcına göre göreli timecode'dur (signed int16).
func webmSimpleBlock(trackNum uint64, relMs int16, keyframe bool, data []byte) []byte {
	trackVint := ebmlVint(trackNum)
	var flags byte
	if keyframe {
		flags = 0x80
	}
	content := make([]byte, len(trackVint)+2+1+len(data))
	copy(content, trackVint)
	binary.BigEndian.PutUint16(content[len(trackVint):], uint16(relMs))
	content[len(trackVint)+2] = flags
	copy(content[len(trackVint)+3:], data)
	return ebmlElem(idSimpleBlock, content)
}

// webmInitSegment: EBML header + Segment (unknown size) + Info + Tracks.
func webmInitSegment(tracks []recorderTrack) []byte {
	var buf bytes.Buffer

	ebmlBody := ebmlConcat(
		ebmlElem(idEBMLVersion, ebmlUint(1)),
		ebmlElem(idEBMLReadVer, ebmlUint(1)),
		ebmlElem(idEBMLMaxIDLen, ebmlUint(4)),
		ebmlElem(idEBMLMaxSzLen, ebmlUint(8)),
		ebmlElem(idDocType, []byte("webm")),
		ebmlElem(idDocTypeVer, ebmlUint(2)),
		ebmlElem(idDocTypeRdVer, ebmlUint(2)),
	)
	buf.Write(ebmlElem(idEBML, ebmlBody))

	// Streaming segment: toplam boyut kayıt bitmeden bilinemez.
	buf.Write(idSegment)
	buf.Write(ebmlUnkSize)

	infoBody := ebmlConcat(
		ebmlElem(idTcScale, ebmlUint(1000000)), // 1 ms / timecode birimi
		ebmlElem(idMuxApp, []byte("kolab")),
		ebmlElem(idWrtApp, []byte("kolabcall")),
	)
	buf.Write(ebmlElem(idInfo, infoBody))

	var tracksBody []byte
	for _, t := range tracks {
		var entry []byte
		switch t.kind {
		case recTrackVP8:
			w, h := t.width, t.height
			if w == 0 || h == 0 {
				w, h = 640, 480
			}
			videoBody := ebmlConcat(
				ebmlElem(idPixelW, ebmlUint(uint64(w))),
				ebmlElem(idPixelH, ebmlUint(uint64(h))),
			)
			entry = ebmlConcat(
				ebmlElem(idTrackNum, ebmlUint(t.num)),
				ebmlElem(idTrackUID, ebmlUint(t.num)),
				ebmlElem(idTrackType, ebmlUint(1)), // video
				ebmlElem(idTrackName, []byte(t.name)),
				ebmlElem(idCodecID, []byte("V_VP8")),
				ebmlElem(idVideo, videoBody),
			)
		case recTrackOpus:
			freqBytes := make([]byte, 4)
			binary.BigEndian.PutUint32(freqBytes, math.Float32bits(48000.0))
			audioBody := ebmlConcat(
				ebmlElem(idSampFreq, freqBytes),
				ebmlElem(idChannels, ebmlUint(1)),
			)
			entry = ebmlConcat(
				ebmlElem(idTrackNum, ebmlUint(t.num)),
				ebmlElem(idTrackUID, ebmlUint(t.num)),
				ebmlElem(idTrackType, ebmlUint(2)), // audio
				ebmlElem(idTrackName, []byte(t.name)),
				ebmlElem(idCodecID, []byte("A_OPUS")),
				ebmlElem(idCodecPrv, opusHead),
				ebmlElem(idAudio, audioBody),
			)
		}
		tracksBody = ebmlConcat(tracksBody, ebmlElem(idTrackEntry, entry))
	}
	buf.Write(ebmlElem(idTracks, tracksBody))
	return buf.Bytes()
}

// vp8Dimensions, keyframe header'ından piksel boyutlarını okur.
func vp8Dimensions(data []byte) (uint16, uint16, bool) {
	if len(data) < 10 || data[3] != 0x9D || data[4] != 0x01 || data[5] != 0x2A {
		return 0, 0, false
	}
	w := binary.LittleEndian.Uint16(data[6:8]) & 0x3FFF
	h := binary.LittleEndian.Uint16(data[8:10]) & 0x3FFF
	return w, h, true
}

// ─── Recorder ───

// maxClusterMs: bir cluster'ın kapsadığı azami süre. SimpleBlock'un
// göreli timecode'u signed int16 olduğu için 32 saniyenin çok altında
// tutulur; keyframe'ler de yeni cluster açar.
const maxClusterMs = 1000

// Recorder, aktif aramanın lokal+karşı taraf medyasını tek bir .webm
// dosyasına yazar. RemoteSampleSink olarak Peer'a bağlanır; lokal video
// ayrı bir besleme goroutine'i ile gelir.
//
// Kayıt durumu tamamen lokaldir — karşı tarafa sinyallenmez.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	tracks []recorderTrack

	localTrack  uint64 // 0 = yok
	remoteVideo uint64
	remoteAudio uint64

	started bool
	stopped bool

	// Cluster birikimi: bloklar zaman sırasıyla eklenir, süre sınırı
	// ya da remote keyframe'de flush edilir.
	clusterStartMs int64
	clusterBlocks  bytes.Buffer
	clusterOpen    bool

	// Her track'in ilk timestamp'i t=0'a normalize edilir — VP8 ve Opus
	// RTP saatleri bağımsız rastgele değerlerden başlar.
	bases map[uint64]int64

	localSrc EncodedVideoSource
	done     chan struct{}
}

// NewRecorder, path'te bir .webm dosyası açar. Track listesi burada
// sabitlenir: localVideo true ise track 1 lokal VP8; karşı taraf video
// ve audio track'leri her zaman ilan edilir (medya gelmezse boş kalırlar).
func NewRecorder(path string, localVideo bool) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording file: %w", err)
	}

	r := &Recorder{
		file:  f,
		bases: make(map[uint64]int64),
		done:  make(chan struct{}),
	}

	num := uint64(1)
	if localVideo {
		r.localTrack = num
		r.tracks = append(r.tracks, recorderTrack{num: num, kind: recTrackVP8, name: "local"})
		num++
	}
	r.remoteVideo = num
	r.tracks = append(r.tracks, recorderTrack{num: num, kind: recTrackVP8, name: "remote"})
	num++
	r.remoteAudio = num
	r.tracks = append(r.tracks, recorderTrack{num: num, kind: recTrackOpus, name: "remote"})

	return r, nil
}

// Start, init segment'i yazar ve varsa lokal video beslemesini başlatır.
// localSrc nil olabilir (lokal video track'i ilan edilmediyse).
func (r *Recorder) Start(localSrc EncodedVideoSource) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("recorder already started")
	}
	r.started = true
	r.localSrc = localSrc
	init := webmInitSegment(r.tracks)
	r.mu.Unlock()

	if _, err := r.file.Write(init); err != nil {
		return fmt.Errorf("write init segment: %w", err)
	}

	if localSrc != nil && r.localTrack != 0 {
		go r.feedLocal()
	}
	return nil
}

// feedLocal, lokal kameranın encode edilmiş VP8 frame'lerini okuyup dosyaya
// yazar. Frame zamanlaması okuma anına göredir — mediadevices encoder'ı
// frame'leri gerçek zamanlı üretir.
func (r *Recorder) feedLocal() {
	var elapsed int64
	const frameMs = 33 // encoder çıkışı yaklaşık 30 fps

	for {
		select {
		case <-r.done:
			return
		default:
		}

		data, keyframe, err := r.localSrc.ReadFrame()
		if err != nil {
			log.Printf("[record] local video feed ended: %v", err)
			return
		}
		r.writeBlock(r.localTrack, elapsed, keyframe, data)
		elapsed += frameMs
	}
}

// WriteVideoSample — RemoteSampleSink. Peer'ın remote track okuyucusundan gelir.
func (r *Recorder) WriteVideoSample(tsMs int64, keyframe bool, data []byte) {
	r.writeBlock(r.remoteVideo, tsMs, keyframe, data)
}

// WriteAudioSample — RemoteSampleSink.
func (r *Recorder) WriteAudioSample(tsMs int64, data []byte) {
	r.writeBlock(r.remoteAudio, tsMs, false, data)
}

// writeBlock, bir sample'ı normalize edip açık cluster'a ekler.
func (r *Recorder) writeBlock(trackNum uint64, tsMs int64, keyframe bool, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || r.stopped {
		return
	}

	base, ok := r.bases[trackNum]
	if !ok {
		r.bases[trackNum] = tsMs
		base = tsMs
	}
	ts := tsMs - base

	// Remote video keyframe'i temiz bir seek noktasıdır — yeni cluster aç.
	if r.clusterOpen && (ts-r.clusterStartMs > maxClusterMs || (keyframe && trackNum == r.remoteVideo)) {
		r.flushClusterLocked()
	}

	if !r.clusterOpen {
		r.clusterOpen = true
		r.clusterStartMs = ts
		r.clusterBlocks.Reset()
	}

	rel := ts - r.clusterStartMs
	if rel < -30000 || rel > 30000 {
		return // int16 göreli timecode aralığının dışında
	}
	r.clusterBlocks.Write(webmSimpleBlock(trackNum, int16(rel), keyframe, data))
}

// flushClusterLocked, biriken blokları bir Cluster elementi olarak dosyaya
// yazar. r.mu tutulmuş olmalı.
func (r *Recorder) flushClusterLocked() {
	if !r.clusterOpen || r.clusterBlocks.Len() == 0 {
		r.clusterOpen = false
		return
	}
	tcElem := ebmlElem(idTimecode, ebmlUint(uint64(r.clusterStartMs)))
	cluster := ebmlElem(idCluster, ebmlConcat(tcElem, r.clusterBlocks.Bytes()))
	r.clusterOpen = false
	r.clusterBlocks.Reset()

	if _, err := r.file.Write(cluster); err != nil {
		log.Printf("[record] cluster write failed: %v", err)
	}
}

// Stop, son cluster'ı flush edip dosyayı kapatır. Idempotent.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	close(r.done)
	r.flushClusterLocked()
	src := r.localSrc
	r.mu.Unlock()

	if src != nil {
		_ = src.Close()
	}
	return r.file.Close()
}
